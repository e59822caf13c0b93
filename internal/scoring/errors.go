package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"MaturityBoard/internal/models/domain"

	"github.com/google/uuid"
)

// IncompleteAssessmentError lists every facet left unscored, in template order.
type IncompleteAssessmentError struct {
	Missing []string
}

func (e *IncompleteAssessmentError) Error() string {
	return "unscored facets: " + strings.Join(e.Missing, ", ")
}

// UnknownFacetError is a score keyed by a facet the template does not have.
type UnknownFacetError struct {
	FacetIDs []uuid.UUID
}

func (e *UnknownFacetError) Error() string {
	ids := make([]string, 0, len(e.FacetIDs))
	for _, id := range e.FacetIDs {
		ids = append(ids, id.String())
	}
	return "unknown facets: " + strings.Join(ids, ", ")
}

// InvalidScoreError is a submitted value outside [1,5].
type InvalidScoreError struct {
	Facet string
	Value float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("facet %q: score %v must be an integer between %d and %d",
		e.Facet, e.Value, domain.MinLevel, domain.MaxLevel)
}

// CheckScores is the write-boundary check for a submission: keys must be
// facets of tmpl, values whole numbers in [1,5], and every facet scored.
func CheckScores(scores domain.Scores, tmpl domain.MaturityTemplate) error {
	if _, unknown := KnownScores(scores, tmpl); len(unknown) > 0 {
		return &UnknownFacetError{FacetIDs: unknown}
	}

	facets := make([]domain.Facet, len(tmpl.Facets))
	copy(facets, tmpl.Facets)
	sort.SliceStable(facets, func(i, j int) bool { return facets[i].Position < facets[j].Position })

	var missing []string
	for _, f := range facets {
		v, ok := scores[f.ID]
		if !ok || v == 0 {
			missing = append(missing, f.Name)
			continue
		}
		if v != math.Trunc(v) || v < domain.MinLevel || v > domain.MaxLevel {
			return &InvalidScoreError{Facet: f.Name, Value: v}
		}
	}
	if len(missing) > 0 {
		return &IncompleteAssessmentError{Missing: missing}
	}
	return nil
}
