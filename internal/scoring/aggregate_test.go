package scoring

import (
	"testing"
	"time"

	"MaturityBoard/internal/models/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testTemplate(names ...string) domain.MaturityTemplate {
	tmpl := domain.MaturityTemplate{ID: uuid.New(), Name: "DORA", Version: "1.0.0"}
	for i, n := range names {
		tmpl.Facets = append(tmpl.Facets, domain.Facet{
			ID:         uuid.New(),
			TemplateID: tmpl.ID,
			Name:       n,
			Position:   i,
		})
	}
	return tmpl
}

func scoresFor(tmpl domain.MaturityTemplate, values ...float64) domain.Scores {
	s := domain.Scores{}
	for i, v := range values {
		s[tmpl.Facets[i].ID] = v
	}
	return s
}

func assessment(svc uuid.UUID, tmpl domain.MaturityTemplate, seq int64, at time.Time, values ...float64) domain.Assessment {
	return domain.Assessment{
		ID:         uuid.New(),
		Seq:        seq,
		ServiceID:  svc,
		TemplateID: tmpl.ID,
		Scores:     scoresFor(tmpl, values...),
		CreatedAt:  at,
	}
}

func TestOverallScore(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name   string
		scores domain.Scores
		want   float64
	}{
		{"empty", domain.Scores{}, 0},
		{"nil", nil, 0},
		{"zero excluded", domain.Scores{a: 3, b: 0, c: 5}, 4},
		{"all five", domain.Scores{a: 5, b: 5, c: 5, d: 5}, 5},
		{"single", domain.Scores{a: 1}, 1},
		{"all unscored", domain.Scores{a: 0, b: 0}, 0},
		{"out of domain ignored", domain.Scores{a: 2, b: 9, c: -1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, OverallScore(tt.scores), 1e-9)
		})
	}
}

func TestComputeDeltaDistinguishesNoPriorFromNoChange(t *testing.T) {
	tmpl := testTemplate("a", "b")
	svc := uuid.New()
	prev := assessment(svc, tmpl, 1, t0, 3, 4)
	cur := assessment(svc, tmpl, 2, t0.Add(time.Hour), 4, 3)

	none := ComputeDelta(cur, nil)
	flat := ComputeDelta(cur, &prev)

	assert.False(t, none.HasPrior)
	assert.True(t, flat.HasPrior)
	assert.Zero(t, flat.Value)
	assert.NotEqual(t, none, flat)

	better := assessment(svc, tmpl, 3, t0.Add(2*time.Hour), 5, 5)
	assert.InDelta(t, 1.5, ComputeDelta(better, &cur).Value, 1e-9)
}

func TestPreviousOf(t *testing.T) {
	tmpl := testTemplate("a")
	other := testTemplate("a")
	svc := uuid.New()

	oldest := assessment(svc, tmpl, 1, t0, 1)
	middle := assessment(svc, tmpl, 2, t0.Add(time.Hour), 2)
	otherTemplate := assessment(svc, other, 3, t0.Add(90*time.Minute), 3)
	otherService := assessment(uuid.New(), tmpl, 4, t0.Add(100*time.Minute), 3)
	current := assessment(svc, tmpl, 5, t0.Add(2*time.Hour), 4)
	newer := assessment(svc, tmpl, 6, t0.Add(3*time.Hour), 5)

	history := []domain.Assessment{newer, otherService, oldest, current, otherTemplate, middle}

	prev := PreviousOf(current, history)
	require.NotNil(t, prev)
	assert.Equal(t, middle.ID, prev.ID)

	assert.Nil(t, PreviousOf(oldest, history))
}

func TestPreviousOfBreaksTimestampTiesBySeq(t *testing.T) {
	tmpl := testTemplate("a")
	svc := uuid.New()

	first := assessment(svc, tmpl, 10, t0, 1)
	second := assessment(svc, tmpl, 11, t0, 2)
	third := assessment(svc, tmpl, 12, t0, 3)

	history := []domain.Assessment{third, first, second}

	prev := PreviousOf(third, history)
	require.NotNil(t, prev)
	assert.Equal(t, second.ID, prev.ID)

	assert.Nil(t, PreviousOf(first, history))
	assert.Equal(t, third.ID, NewestFirst(history)[0].ID)
}

func TestFacetScoresFollowsTemplateOrder(t *testing.T) {
	tmpl := testTemplate("Deployment Frequency", "Lead Time", "MTTR", "Change Failure Rate")
	svc := uuid.New()
	prev := assessment(svc, tmpl, 1, t0, 2, 2, 2)
	cur := assessment(svc, tmpl, 2, t0.Add(time.Hour), 3, 0, 4, 5)
	cur.Scores[uuid.New()] = 1 // stale facet

	first := FacetScores(cur, tmpl, &prev)
	second := FacetScores(cur, tmpl, &prev)
	assert.Equal(t, first, second)

	require.Len(t, first, 4)
	for i, fs := range first {
		assert.Equal(t, tmpl.Facets[i].ID, fs.FacetID)
		assert.Equal(t, tmpl.Facets[i].Name, fs.Name)
	}
	assert.Equal(t, []float64{3, 0, 4, 5}, []float64{first[0].Score, first[1].Score, first[2].Score, first[3].Score})
	assert.Equal(t, 0.0, first[3].PreviousScore)
	assert.Equal(t, 2.0, first[0].PreviousScore)

	noPrev := FacetScores(cur, tmpl, nil)
	for _, fs := range noPrev {
		assert.Zero(t, fs.PreviousScore)
	}
}

func TestRollUpExcludesUnassessedServices(t *testing.T) {
	tmpl := testTemplate("a")
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	services := []ServiceHistory{
		{Service: domain.Service{ID: a}, Assessments: []domain.Assessment{assessment(a, tmpl, 1, t0, 4)}},
		{Service: domain.Service{ID: b}, Assessments: []domain.Assessment{assessment(b, tmpl, 2, t0, 3)}},
		{Service: domain.Service{ID: c}},
	}

	res := RollUp(services, TrendExcludeNew)
	assert.InDelta(t, 3.5, res.Current, 1e-9)
	assert.Equal(t, 2, res.Assessed)
	assert.False(t, res.HasPrior)
	assert.Zero(t, res.Trend)

	assert.Equal(t, RollUpResult{}, RollUp(nil, TrendExcludeNew))
}

func TestRollUpTrendPolicies(t *testing.T) {
	tmpl := testTemplate("a")
	a, b := uuid.New(), uuid.New()

	services := []ServiceHistory{
		{Service: domain.Service{ID: a}, Assessments: []domain.Assessment{
			assessment(a, tmpl, 2, t0.Add(time.Hour), 4),
			assessment(a, tmpl, 1, t0, 3),
		}},
		{Service: domain.Service{ID: b}, Assessments: []domain.Assessment{
			assessment(b, tmpl, 3, t0.Add(time.Hour), 2),
		}},
	}

	excl := RollUp(services, TrendExcludeNew)
	assert.InDelta(t, 3.0, excl.Current, 1e-9)
	assert.True(t, excl.HasPrior)
	assert.Equal(t, 1, excl.WithPrior)
	assert.InDelta(t, 0.0, excl.Trend, 1e-9) // 3 - 3/1

	legacy := RollUp(services, TrendLegacy)
	assert.InDelta(t, 3.0, legacy.Current, 1e-9)
	assert.InDelta(t, 1.5, legacy.Trend, 1e-9) // 3 - 3/2
}

func TestRollUpPairsWithinTemplate(t *testing.T) {
	dora := testTemplate("a", "b")
	security := testTemplate("x", "y")
	svc := uuid.New()

	history := ServiceHistory{Service: domain.Service{ID: svc}, Assessments: []domain.Assessment{
		assessment(svc, dora, 1, t0, 4, 4),
		assessment(svc, security, 2, t0.Add(time.Hour), 2, 2),
	}}

	latest, previous := history.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, security.ID, latest.TemplateID)
	assert.Nil(t, previous)

	res := RollUp([]ServiceHistory{history}, TrendExcludeNew)
	assert.InDelta(t, 2.0, res.Current, 1e-9)
	assert.False(t, res.HasPrior)
	assert.Zero(t, res.WithPrior)
	assert.Zero(t, res.Trend)

	history.Assessments = append(history.Assessments, assessment(svc, dora, 3, t0.Add(2*time.Hour), 3, 3))
	res = RollUp([]ServiceHistory{history}, TrendExcludeNew)
	assert.InDelta(t, 3.0, res.Current, 1e-9)
	assert.True(t, res.HasPrior)
	assert.Equal(t, 1, res.WithPrior)
	assert.InDelta(t, -1.0, res.Trend, 1e-9)
}

func TestDistributionBuckets(t *testing.T) {
	tmpl := testTemplate("a", "b", "c", "d", "e", "f")
	a, b := uuid.New(), uuid.New()

	services := []ServiceHistory{
		{Service: domain.Service{ID: a}, Assessments: []domain.Assessment{
			assessment(a, tmpl, 1, t0, 5, 5, 5, 5, 5),
			assessment(a, tmpl, 2, t0.Add(time.Hour), 1, 2, 3, 4, 5),
		}},
	}
	assert.Equal(t, Buckets{Low: 2, Medium: 2, High: 1}, DistributionBuckets(services))

	services = append(services, ServiceHistory{
		Service:     domain.Service{ID: b},
		Assessments: []domain.Assessment{assessment(b, tmpl, 3, t0, 2.5, 0, 4.5)},
	})
	assert.Equal(t, Buckets{Low: 2, Medium: 3, High: 2}, DistributionBuckets(services))
}

func TestTrendSeries(t *testing.T) {
	tmpl := testTemplate("a", "b")
	svc := uuid.New()
	first := assessment(svc, tmpl, 1, t0, 2, 2)
	second := assessment(svc, tmpl, 2, t0.Add(time.Hour), 3, 3)
	third := assessment(svc, tmpl, 3, t0.Add(2*time.Hour), 3, 3)

	series := TrendSeries([]domain.Assessment{third, first, second})
	require.Len(t, series, 3)

	assert.Equal(t, first.ID, series[0].AssessmentID)
	assert.False(t, series[0].HasPrior)
	assert.Equal(t, second.ID, series[1].AssessmentID)
	assert.InDelta(t, 1.0, series[1].Value, 1e-9)
	assert.True(t, series[2].HasPrior)
	assert.Zero(t, series[2].Value)

	assert.Empty(t, TrendSeries(nil))
}

func TestHeatmap(t *testing.T) {
	tmpl := testTemplate("a", "b", "c")
	other := testTemplate("x")
	a, b := uuid.New(), uuid.New()

	latest := assessment(a, tmpl, 2, t0.Add(time.Hour), 4, 0, 2)
	services := []ServiceHistory{
		{Service: domain.Service{ID: a, Name: "billing"}, Assessments: []domain.Assessment{
			assessment(a, tmpl, 1, t0, 1, 1, 1),
			latest,
			assessment(a, other, 3, t0.Add(2*time.Hour), 5),
		}},
		{Service: domain.Service{ID: b, Name: "search"}},
	}

	hm := Heatmap(services, tmpl)
	assert.Equal(t, tmpl.ID, hm.TemplateID)
	require.Len(t, hm.Facets, 3)
	require.Len(t, hm.Rows, 2)

	assert.True(t, hm.Rows[0].Assessed)
	assert.Equal(t, latest.ID, hm.Rows[0].AssessmentID)
	assert.Equal(t, []float64{4, 0, 2}, hm.Rows[0].Cells)
	assert.InDelta(t, 3.0, hm.Rows[0].Overall, 1e-9)

	assert.False(t, hm.Rows[1].Assessed)
	assert.Equal(t, []float64{0, 0, 0}, hm.Rows[1].Cells)
}

func TestFacetAverages(t *testing.T) {
	tmpl := testTemplate("a", "b")
	a, b := uuid.New(), uuid.New()
	services := []ServiceHistory{
		{Service: domain.Service{ID: a}, Assessments: []domain.Assessment{assessment(a, tmpl, 1, t0, 4, 0)}},
		{Service: domain.Service{ID: b}, Assessments: []domain.Assessment{assessment(b, tmpl, 2, t0, 2, 0)}},
	}

	avgs := FacetAverages(services, tmpl)
	require.Len(t, avgs, 2)
	assert.InDelta(t, 3.0, avgs[0].Average, 1e-9)
	assert.Equal(t, 2, avgs[0].Scored)
	assert.Zero(t, avgs[1].Average)
	assert.Zero(t, avgs[1].Scored)
}

func TestKnownScores(t *testing.T) {
	tmpl := testTemplate("a")
	stale := uuid.New()
	scores := domain.Scores{tmpl.Facets[0].ID: 3, stale: 5}

	known, unknown := KnownScores(scores, tmpl)
	assert.Equal(t, domain.Scores{tmpl.Facets[0].ID: 3}, known)
	assert.Equal(t, []uuid.UUID{stale}, unknown)
}

func TestParseTrendPolicy(t *testing.T) {
	assert.Equal(t, TrendLegacy, ParseTrendPolicy("legacy"))
	assert.Equal(t, TrendExcludeNew, ParseTrendPolicy("exclude_new"))
	assert.Equal(t, TrendExcludeNew, ParseTrendPolicy(""))
}
