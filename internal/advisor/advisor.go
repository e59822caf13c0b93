// Package advisor asks a language model for improvement advice on the
// weakest facets of an assessment.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"

	"github.com/google/uuid"
	"github.com/revrost/go-openrouter"
)

// MaxFocusAreas bounds how many facets a recommendation covers.
const MaxFocusAreas = 3

var ErrEmptyCompletion = errors.New("model returned no content")

// Completer sends one system+user exchange to a model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type FocusArea struct {
	FacetID              uuid.UUID `json:"facetId"`
	Facet                string    `json:"facet"`
	Score                float64   `json:"score"`
	NextLevel            int       `json:"nextLevel,omitempty"`
	NextLevelName        string    `json:"nextLevelName,omitempty"`
	NextLevelDescription string    `json:"nextLevelDescription,omitempty"`
}

type Recommendation struct {
	AssessmentID uuid.UUID   `json:"assessmentId"`
	Model        string      `json:"model"`
	Focus        []FocusArea `json:"focus"`
	Advice       string      `json:"advice"`
}

type Advisor struct {
	log       *slog.Logger
	completer Completer
	model     string
}

// New returns nil when the advisor is disabled or has no API key.
func New(logger *slog.Logger, cfg config.AdvisorConfig) *Advisor {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	client := openrouter.NewClient(cfg.APIKey, openrouter.WithXTitle("MaturityBoard"))
	return NewWithCompleter(logger, &openRouterCompleter{client: client, model: cfg.Model}, cfg.Model)
}

func NewWithCompleter(logger *slog.Logger, c Completer, model string) *Advisor {
	return &Advisor{
		log:       logger.With(slog.String("component", "advisor")),
		completer: c,
		model:     model,
	}
}

// Recommend picks the lowest scoring facets and asks the model how to reach
// the next level on each.
func (a *Advisor) Recommend(ctx context.Context, report scoring.AssessmentReport, tmpl domain.MaturityTemplate) (*Recommendation, error) {
	op := "advisor.Recommend"
	log := a.log.With(slog.String("op", op))

	rec := &Recommendation{
		AssessmentID: report.AssessmentID,
		Model:        a.model,
		Focus:        FocusAreas(report.FacetScores, tmpl, MaxFocusAreas),
	}
	if len(rec.Focus) == 0 {
		rec.Advice = "Every facet is at the highest level."
		return rec, nil
	}

	advice, err := a.completer.Complete(ctx, systemPrompt, BuildPrompt(report, rec.Focus))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.Advice = strings.TrimSpace(advice)

	log.Debug("recommendation generated",
		slog.String("assessment_id", report.AssessmentID.String()),
		slog.Int("focus", len(rec.Focus)))
	return rec, nil
}

// FocusAreas returns up to limit facets below the top level, lowest score
// first, ties in template order.
func FocusAreas(scores []scoring.FacetScore, tmpl domain.MaturityTemplate, limit int) []FocusArea {
	var out []FocusArea
	for _, fs := range scores {
		if fs.Score >= domain.MaxLevel {
			continue
		}
		area := FocusArea{FacetID: fs.FacetID, Facet: fs.Name, Score: fs.Score}
		if f, ok := tmpl.FacetByID(fs.FacetID); ok {
			if l, ok := nextLevel(f, fs.Score); ok {
				area.NextLevel = l.Number
				area.NextLevelName = l.Name
				area.NextLevelDescription = l.Description
			}
		}
		out = append(out, area)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// nextLevel is the lowest defined level above score.
func nextLevel(f domain.Facet, score float64) (domain.Level, bool) {
	current := int(math.Floor(score))
	var (
		best  domain.Level
		found bool
	)
	for _, l := range f.Levels {
		if l.Number > current && (!found || l.Number < best.Number) {
			best, found = l, true
		}
	}
	return best, found
}

const systemPrompt = "You are an engineering coach. Give short, concrete steps a team " +
	"can take in the next quarter. Answer in Markdown with one section per facet."

// BuildPrompt renders the user message for a recommendation.
func BuildPrompt(report scoring.AssessmentReport, focus []FocusArea) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template: %s %s\n", report.TemplateName, report.TemplateVersion)
	fmt.Fprintf(&b, "Overall score: %.2f of %d\n", report.OverallScore, domain.MaxLevel)
	if report.Delta.HasPrior {
		fmt.Fprintf(&b, "Change since previous assessment: %+.2f\n", report.Delta.Value)
	}
	b.WriteString("\nFacets to improve:\n")
	for _, f := range focus {
		fmt.Fprintf(&b, "- %s: currently %.0f", f.Facet, f.Score)
		if f.NextLevel > 0 {
			fmt.Fprintf(&b, "; next level %d %q: %s", f.NextLevel, f.NextLevelName, f.NextLevelDescription)
		}
		b.WriteString("\n")
	}
	if report.Notes != "" {
		fmt.Fprintf(&b, "\nAssessor notes: %s\n", report.Notes)
	}
	return b.String()
}

type openRouterCompleter struct {
	client *openrouter.Client
	model  string
}

func (c *openRouterCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	op := "advisor.openRouterCompleter.Complete"

	resp, err := c.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model: c.model,
		Messages: []openrouter.ChatCompletionMessage{
			openrouter.SystemMessage(system),
			openrouter.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content.Text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content.Text, nil
}
