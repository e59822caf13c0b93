package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/utils/logger/sl"

	"github.com/google/uuid"
)

// Store is the persistence the scoring service reads and appends to.
type Store interface {
	GetOrganisationByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)
	GetTeamByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*domain.MaturityTemplate, error)
	GetAssessmentByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error)
	ListServicesByTeamID(ctx context.Context, teamID uuid.UUID) ([]domain.Service, error)
	ListServicesByOrganisationID(ctx context.Context, orgID uuid.UUID) ([]domain.Service, error)
	ListAssessmentsByServiceID(ctx context.Context, serviceID uuid.UUID, templateID *uuid.UUID) ([]domain.Assessment, error)
	ListAssessmentsByServiceIDs(ctx context.Context, serviceIDs []uuid.UUID, templateID *uuid.UUID) ([]domain.Assessment, error)
	CreateAssessment(ctx context.Context, a domain.Assessment) (*domain.Assessment, error)
}

// Notifier is told about every stored assessment.
type Notifier interface {
	AssessmentSubmitted(ctx context.Context, n SubmittedNotice) error
}

// SubmittedNotice is what a notifier needs to describe a new assessment.
type SubmittedNotice struct {
	Service  domain.Service
	Template domain.MaturityTemplate
	Report   AssessmentReport
}

// notifyTimeout bounds a single notification fan-out.
const notifyTimeout = 30 * time.Second

// Service provides scoring business logic.
type Service struct {
	store    Store
	notifier Notifier
	policy   TrendPolicy
	pending  sync.WaitGroup
	log      *slog.Logger
}

// New creates a new scoring service. notifier may be nil.
func New(logger *slog.Logger, store Store, notifier Notifier, policy TrendPolicy) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		policy:   policy,
		log:      logger.With(slog.String("component", "scoring")),
	}
}

// SetNotifier replaces the notifier; used when the bot starts after the service.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

type AssessmentInput struct {
	ServiceID  uuid.UUID
	TemplateID uuid.UUID
	Scores     domain.Scores
	Notes      string
	AssessedBy string
}

type AssessmentReport struct {
	AssessmentID         uuid.UUID    `json:"assessmentId"`
	ServiceID            uuid.UUID    `json:"serviceId"`
	TemplateID           uuid.UUID    `json:"templateId"`
	TemplateName         string       `json:"templateName"`
	TemplateVersion      string       `json:"templateVersion"`
	CreatedAt            time.Time    `json:"createdAt"`
	Notes                string       `json:"notes,omitempty"`
	AssessedBy           string       `json:"assessedBy,omitempty"`
	OverallScore         float64      `json:"overallScore"`
	PreviousAssessmentID *uuid.UUID   `json:"previousAssessmentId,omitempty"`
	PreviousOverallScore float64      `json:"previousOverallScore"`
	Delta                Delta        `json:"change"`
	FacetScores          []FacetScore `json:"facetScores"`
}

type Dashboard struct {
	Scope         string         `json:"scope"`
	ScopeID       uuid.UUID      `json:"scopeId"`
	Name          string         `json:"name"`
	TemplateID    *uuid.UUID     `json:"templateId,omitempty"`
	Services      int            `json:"services"`
	Maturity      RollUpResult   `json:"maturity"`
	Distribution  Buckets        `json:"distribution"`
	FacetAverages []FacetAverage `json:"facetAverages,omitempty"`
}

// SubmitAssessment checks scores against the template and appends a new
// assessment. All unscored facets are reported at once.
func (s *Service) SubmitAssessment(ctx context.Context, in AssessmentInput) (*domain.Assessment, error) {
	op := "scoring.SubmitAssessment"
	log := s.log.With(slog.String("op", op))

	svc, err := s.store.GetServiceByID(ctx, in.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%s: service: %w", op, err)
	}
	tmpl, err := s.store.GetTemplateByID(ctx, in.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("%s: template: %w", op, err)
	}

	if err := CheckScores(in.Scores, *tmpl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.store.CreateAssessment(ctx, domain.Assessment{
		ID:         uuid.New(),
		ServiceID:  svc.ID,
		TemplateID: tmpl.ID,
		Scores:     in.Scores,
		Notes:      in.Notes,
		AssessedBy: in.AssessedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("assessment stored",
		slog.String("assessmentID", stored.ID.String()),
		slog.String("serviceID", svc.ID.String()),
		slog.String("templateID", tmpl.ID.String()),
		slog.Float64("overallScore", OverallScore(stored.Scores)))

	if s.notifier != nil {
		report, err := s.report(ctx, *stored, *tmpl)
		if err != nil {
			log.Warn("cannot build report for notification", sl.Err(err))
			return stored, nil
		}
		s.notify(ctx, SubmittedNotice{Service: *svc, Template: *tmpl, Report: *report})
	}

	return stored, nil
}

// notify delivers the notice in the background, detached from the caller's
// cancellation and bounded by notifyTimeout.
func (s *Service) notify(ctx context.Context, notice SubmittedNotice) {
	op := "scoring.notify"
	log := s.log.With(slog.String("op", op))
	notifier := s.notifier

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := notifier.AssessmentSubmitted(ctx, notice); err != nil {
			log.Warn("assessment notification failed",
				slog.String("assessmentID", notice.Report.AssessmentID.String()),
				sl.Err(err))
		}
	}()
}

// Flush waits for notifications still in flight.
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scoring.Flush: %w", ctx.Err())
	}
}

// AssessmentReport computes the overall score, delta and facet projection of
// one assessment.
func (s *Service) AssessmentReport(ctx context.Context, assessmentID uuid.UUID) (*AssessmentReport, error) {
	op := "scoring.AssessmentReport"

	a, err := s.store.GetAssessmentByID(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tmpl, err := s.store.GetTemplateByID(ctx, a.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("%s: template: %w", op, err)
	}

	report, err := s.report(ctx, *a, *tmpl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return report, nil
}

func (s *Service) report(ctx context.Context, a domain.Assessment, tmpl domain.MaturityTemplate) (*AssessmentReport, error) {
	history, err := s.store.ListAssessmentsByServiceID(ctx, a.ServiceID, &a.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	current := s.known(a, tmpl)
	var previous *domain.Assessment
	if p := PreviousOf(a, history); p != nil {
		pk := s.known(*p, tmpl)
		previous = &pk
	}

	report := &AssessmentReport{
		AssessmentID:    a.ID,
		ServiceID:       a.ServiceID,
		TemplateID:      tmpl.ID,
		TemplateName:    tmpl.Name,
		TemplateVersion: tmpl.Version,
		CreatedAt:       a.CreatedAt,
		Notes:           a.Notes,
		AssessedBy:      a.AssessedBy,
		OverallScore:    OverallScore(current.Scores),
		Delta:           ComputeDelta(current, previous),
		FacetScores:     FacetScores(current, tmpl, previous),
	}
	if previous != nil {
		id := previous.ID
		report.PreviousAssessmentID = &id
		report.PreviousOverallScore = OverallScore(previous.Scores)
	}
	return report, nil
}

// known drops scores for facets the template does not have and logs them.
func (s *Service) known(a domain.Assessment, tmpl domain.MaturityTemplate) domain.Assessment {
	known, unknown := KnownScores(a.Scores, tmpl)
	if len(unknown) > 0 {
		ids := make([]string, 0, len(unknown))
		for _, id := range unknown {
			ids = append(ids, id.String())
		}
		s.log.Warn("assessment references facets missing from its template",
			slog.String("assessmentID", a.ID.String()),
			slog.String("templateID", tmpl.ID.String()),
			slog.Any("facetIDs", ids))
	}
	a.Scores = known
	return a
}

// ServiceTrend returns the chronological overall score series of a service
// for one template.
func (s *Service) ServiceTrend(ctx context.Context, serviceID, templateID uuid.UUID) ([]TrendPoint, error) {
	op := "scoring.ServiceTrend"

	if _, err := s.store.GetServiceByID(ctx, serviceID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tmpl, err := s.store.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: template: %w", op, err)
	}
	history, err := s.store.ListAssessmentsByServiceID(ctx, serviceID, &templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range history {
		history[i] = s.known(history[i], *tmpl)
	}
	return TrendSeries(history), nil
}

// TeamDashboard rolls up the services of a team. With a template id only
// assessments of that template count and facet averages are included.
func (s *Service) TeamDashboard(ctx context.Context, teamID uuid.UUID, templateID *uuid.UUID) (*Dashboard, error) {
	op := "scoring.TeamDashboard"

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services, err := s.store.ListServicesByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d, err := s.dashboard(ctx, services, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.Scope, d.ScopeID, d.Name = "team", team.ID, team.Name
	return d, nil
}

// OrganisationDashboard rolls up every service of every team in the organisation.
func (s *Service) OrganisationDashboard(ctx context.Context, orgID uuid.UUID, templateID *uuid.UUID) (*Dashboard, error) {
	op := "scoring.OrganisationDashboard"

	org, err := s.store.GetOrganisationByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services, err := s.store.ListServicesByOrganisationID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d, err := s.dashboard(ctx, services, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d.Scope, d.ScopeID, d.Name = "organisation", org.ID, org.Name
	return d, nil
}

func (s *Service) dashboard(ctx context.Context, services []domain.Service, templateID *uuid.UUID) (*Dashboard, error) {
	histories, err := s.histories(ctx, services, templateID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TemplateID:   templateID,
		Services:     len(services),
		Maturity:     RollUp(histories, s.policy),
		Distribution: DistributionBuckets(histories),
	}

	if templateID != nil {
		tmpl, err := s.store.GetTemplateByID(ctx, *templateID)
		if err != nil {
			return nil, fmt.Errorf("template: %w", err)
		}
		d.FacetAverages = FacetAverages(histories, *tmpl)
	}
	return d, nil
}

// histories loads assessments for services and strips referential gaps using
// each assessment's own template.
func (s *Service) histories(ctx context.Context, services []domain.Service, templateID *uuid.UUID) ([]ServiceHistory, error) {
	if len(services) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(services))
	for _, svc := range services {
		ids = append(ids, svc.ID)
	}

	assessments, err := s.store.ListAssessmentsByServiceIDs(ctx, ids, templateID)
	if err != nil {
		return nil, fmt.Errorf("assessments: %w", err)
	}

	templates := make(map[uuid.UUID]*domain.MaturityTemplate)
	byService := make(map[uuid.UUID][]domain.Assessment, len(services))
	for _, a := range assessments {
		tmpl, ok := templates[a.TemplateID]
		if !ok {
			tmpl, err = s.store.GetTemplateByID(ctx, a.TemplateID)
			if err != nil {
				return nil, fmt.Errorf("template %s: %w", a.TemplateID, err)
			}
			templates[a.TemplateID] = tmpl
		}
		byService[a.ServiceID] = append(byService[a.ServiceID], s.known(a, *tmpl))
	}

	out := make([]ServiceHistory, 0, len(services))
	for _, svc := range services {
		out = append(out, ServiceHistory{Service: svc, Assessments: byService[svc.ID]})
	}
	return out, nil
}

// TeamHeatmap lays out the services of a team against a template's facets.
func (s *Service) TeamHeatmap(ctx context.Context, teamID, templateID uuid.UUID) (*HeatmapResult, error) {
	op := "scoring.TeamHeatmap"

	if _, err := s.store.GetTeamByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services, err := s.store.ListServicesByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hm, err := s.heatmap(ctx, services, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hm, nil
}

// OrganisationHeatmap lays out every service of an organisation.
func (s *Service) OrganisationHeatmap(ctx context.Context, orgID, templateID uuid.UUID) (*HeatmapResult, error) {
	op := "scoring.OrganisationHeatmap"

	if _, err := s.store.GetOrganisationByID(ctx, orgID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services, err := s.store.ListServicesByOrganisationID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hm, err := s.heatmap(ctx, services, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hm, nil
}

func (s *Service) heatmap(ctx context.Context, services []domain.Service, templateID uuid.UUID) (*HeatmapResult, error) {
	tmpl, err := s.store.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	histories, err := s.histories(ctx, services, &templateID)
	if err != nil {
		return nil, err
	}
	hm := Heatmap(histories, *tmpl)
	return &hm, nil
}
