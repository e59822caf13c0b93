package scoring

import (
	"sort"
	"time"

	"MaturityBoard/internal/models/domain"

	"github.com/google/uuid"
)

// TrendPolicy decides how services without a second-latest assessment
// take part in the prior-period mean of a roll-up.
type TrendPolicy string

const (
	// TrendExcludeNew leaves such services out of the prior-period mean.
	TrendExcludeNew TrendPolicy = "exclude_new"
	// TrendLegacy counts them as 0 in the numerator and 1 in the denominator.
	TrendLegacy TrendPolicy = "legacy"
)

// ParseTrendPolicy maps a config value to a policy; unknown values fall back
// to TrendExcludeNew.
func ParseTrendPolicy(s string) TrendPolicy {
	if TrendPolicy(s) == TrendLegacy {
		return TrendLegacy
	}
	return TrendExcludeNew
}

// Delta is the change of overall score against the previous assessment.
// HasPrior is false for a first-ever assessment, which is not "no change".
type Delta struct {
	Value    float64 `json:"delta"`
	HasPrior bool    `json:"hasPrior"`
}

type FacetScore struct {
	FacetID       uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Score         float64   `json:"score"`
	PreviousScore float64   `json:"previousScore"`
}

// ServiceHistory is a service with its assessments in any order.
type ServiceHistory struct {
	Service     domain.Service
	Assessments []domain.Assessment
}

// Latest returns the newest assessment and the one before it for the same
// template. A history spanning several templates never pairs across them.
func (h ServiceHistory) Latest() (latest, previous *domain.Assessment) {
	sorted := NewestFirst(h.Assessments)
	if len(sorted) == 0 {
		return nil, nil
	}
	latest = &sorted[0]
	return latest, PreviousOf(*latest, sorted)
}

type RollUpResult struct {
	Current   float64 `json:"current"`
	Trend     float64 `json:"trend"`
	HasPrior  bool    `json:"hasPrior"`
	Assessed  int     `json:"assessed"`
	WithPrior int     `json:"withPrior"`
}

type Buckets struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type TrendPoint struct {
	AssessmentID uuid.UUID `json:"assessmentId"`
	CreatedAt    time.Time `json:"createdAt"`
	Overall      float64   `json:"overallScore"`
	Delta
}

type HeatmapFacet struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type HeatmapRow struct {
	ServiceID    uuid.UUID `json:"serviceId"`
	ServiceName  string    `json:"serviceName"`
	Assessed     bool      `json:"assessed"`
	AssessmentID uuid.UUID `json:"assessmentId,omitempty"`
	Overall      float64   `json:"overallScore"`
	Cells        []float64 `json:"cells"`
}

type HeatmapResult struct {
	TemplateID uuid.UUID      `json:"templateId"`
	Facets     []HeatmapFacet `json:"facets"`
	Rows       []HeatmapRow   `json:"rows"`
}

type FacetAverage struct {
	FacetID uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Average float64   `json:"average"`
	Scored  int       `json:"scored"`
}

// OverallScore is the mean of the assessed values; 0 when nothing is assessed.
func OverallScore(scores domain.Scores) float64 {
	var sum float64
	var n int
	for _, v := range scores {
		if !domain.Scored(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// KnownScores splits scores into those naming a template facet and the ids
// of facets the template does not have.
func KnownScores(scores domain.Scores, tmpl domain.MaturityTemplate) (domain.Scores, []uuid.UUID) {
	known := make(domain.Scores, len(scores))
	var unknown []uuid.UUID
	for id, v := range scores {
		if tmpl.HasFacet(id) {
			known[id] = v
			continue
		}
		unknown = append(unknown, id)
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i].String() < unknown[j].String() })
	return known, unknown
}

// ComputeDelta compares current with previous. A nil previous means no prior data.
func ComputeDelta(current domain.Assessment, previous *domain.Assessment) Delta {
	if previous == nil {
		return Delta{}
	}
	return Delta{
		Value:    OverallScore(current.Scores) - OverallScore(previous.Scores),
		HasPrior: true,
	}
}

// NewestFirst returns a copy of history ordered by (CreatedAt, Seq) descending.
func NewestFirst(history []domain.Assessment) []domain.Assessment {
	out := make([]domain.Assessment, len(history))
	copy(out, history)
	sort.SliceStable(out, func(i, j int) bool { return out[j].OlderThan(out[i]) })
	return out
}

// PreviousOf finds the most recent assessment of the same service and
// template that is strictly older than current.
func PreviousOf(current domain.Assessment, history []domain.Assessment) *domain.Assessment {
	var best *domain.Assessment
	for i := range history {
		a := history[i]
		if a.ID == current.ID || a.ServiceID != current.ServiceID || a.TemplateID != current.TemplateID {
			continue
		}
		if !a.OlderThan(current) {
			continue
		}
		if best == nil || best.OlderThan(a) {
			best = &history[i]
		}
	}
	return best
}

// FacetScores projects an assessment onto the template's facet order.
func FacetScores(a domain.Assessment, tmpl domain.MaturityTemplate, previous *domain.Assessment) []FacetScore {
	out := make([]FacetScore, 0, len(tmpl.Facets))
	for _, f := range tmpl.Facets {
		fs := FacetScore{
			FacetID: f.ID,
			Name:    f.Name,
			Score:   a.Scores.Get(f.ID),
		}
		if previous != nil {
			fs.PreviousScore = previous.Scores.Get(f.ID)
		}
		out = append(out, fs)
	}
	return out
}

// RollUp averages the latest overall score of every assessed service and
// compares it with the same mean one assessment earlier.
func RollUp(services []ServiceHistory, policy TrendPolicy) RollUpResult {
	var res RollUpResult
	var currentSum, priorSum float64

	for _, svc := range services {
		latest, previous := svc.Latest()
		if latest == nil {
			continue
		}
		res.Assessed++
		currentSum += OverallScore(latest.Scores)

		if previous != nil {
			res.WithPrior++
			priorSum += OverallScore(previous.Scores)
		}
	}

	if res.Assessed == 0 {
		return res
	}
	res.Current = currentSum / float64(res.Assessed)

	if res.WithPrior == 0 {
		return res
	}
	res.HasPrior = true

	denominator := res.WithPrior
	if policy == TrendLegacy {
		denominator = res.Assessed
	}
	res.Trend = res.Current - priorSum/float64(denominator)
	return res
}

// Distribution counts the assessed facet values of one score set.
func Distribution(scores domain.Scores) Buckets {
	var b Buckets
	for _, v := range scores {
		switch {
		case !domain.Scored(v):
		case v <= 2:
			b.Low++
		case v <= 4:
			b.Medium++
		default:
			b.High++
		}
	}
	return b
}

// DistributionBuckets sums Distribution over each service's latest assessment.
func DistributionBuckets(services []ServiceHistory) Buckets {
	var total Buckets
	for _, svc := range services {
		latest, _ := svc.Latest()
		if latest == nil {
			continue
		}
		b := Distribution(latest.Scores)
		total.Low += b.Low
		total.Medium += b.Medium
		total.High += b.High
	}
	return total
}

// TrendSeries lists a history oldest first with each point's delta to the
// one before.
func TrendSeries(history []domain.Assessment) []TrendPoint {
	sorted := NewestFirst(history)
	out := make([]TrendPoint, len(sorted))
	for i := range sorted {
		a := sorted[len(sorted)-1-i]
		var prev *domain.Assessment
		if i > 0 {
			prev = &sorted[len(sorted)-i]
		}
		out[i] = TrendPoint{
			AssessmentID: a.ID,
			CreatedAt:    a.CreatedAt,
			Overall:      OverallScore(a.Scores),
			Delta:        ComputeDelta(a, prev),
		}
	}
	return out
}

// Heatmap lays out the latest assessment of every service against the facets
// of tmpl. Only assessments of tmpl are considered.
func Heatmap(services []ServiceHistory, tmpl domain.MaturityTemplate) HeatmapResult {
	res := HeatmapResult{
		TemplateID: tmpl.ID,
		Facets:     make([]HeatmapFacet, 0, len(tmpl.Facets)),
		Rows:       make([]HeatmapRow, 0, len(services)),
	}
	for _, f := range tmpl.Facets {
		res.Facets = append(res.Facets, HeatmapFacet{ID: f.ID, Name: f.Name})
	}

	for _, svc := range ForTemplate(services, tmpl.ID) {
		row := HeatmapRow{
			ServiceID:   svc.Service.ID,
			ServiceName: svc.Service.Name,
			Cells:       make([]float64, len(tmpl.Facets)),
		}
		if latest, _ := svc.Latest(); latest != nil {
			row.Assessed = true
			row.AssessmentID = latest.ID
			known, _ := KnownScores(latest.Scores, tmpl)
			row.Overall = OverallScore(known)
			for i, f := range tmpl.Facets {
				row.Cells[i] = known.Get(f.ID)
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// FacetAverages is the mean assessed value per facet across the latest
// assessment of each service for tmpl.
func FacetAverages(services []ServiceHistory, tmpl domain.MaturityTemplate) []FacetAverage {
	out := make([]FacetAverage, len(tmpl.Facets))
	sums := make([]float64, len(tmpl.Facets))
	for i, f := range tmpl.Facets {
		out[i] = FacetAverage{FacetID: f.ID, Name: f.Name}
	}

	for _, svc := range ForTemplate(services, tmpl.ID) {
		latest, _ := svc.Latest()
		if latest == nil {
			continue
		}
		for i, f := range tmpl.Facets {
			v := latest.Scores.Get(f.ID)
			if !domain.Scored(v) {
				continue
			}
			sums[i] += v
			out[i].Scored++
		}
	}

	for i := range out {
		if out[i].Scored > 0 {
			out[i].Average = sums[i] / float64(out[i].Scored)
		}
	}
	return out
}

// ForTemplate keeps every service but only its assessments of templateID.
func ForTemplate(services []ServiceHistory, templateID uuid.UUID) []ServiceHistory {
	out := make([]ServiceHistory, 0, len(services))
	for _, svc := range services {
		filtered := ServiceHistory{Service: svc.Service}
		for _, a := range svc.Assessments {
			if a.TemplateID == templateID {
				filtered.Assessments = append(filtered.Assessments, a)
			}
		}
		out = append(out, filtered)
	}
	return out
}
