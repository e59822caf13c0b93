package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Scores maps facet ids to a value in [0,5]. Zero means "not assessed".
type Scores map[uuid.UUID]float64

// Scored reports whether v counts as an assessed facet value.
func Scored(v float64) bool {
	return v > 0 && v <= MaxLevel && !math.IsNaN(v)
}

// Get returns the value for a facet, zero when absent.
func (s Scores) Get(facetID uuid.UUID) float64 {
	if s == nil {
		return 0
	}
	return s[facetID]
}

// Value stores scores as a JSON object keyed by facet id. A string is
// returned because lib/pq encodes []byte parameters as bytea.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[uuid.UUID]float64(s))
	if err != nil {
		return nil, fmt.Errorf("Scores.Value: %w", err)
	}
	return string(b), nil
}

// Scan reads a JSON object written by Value.
func (s *Scores) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Scores{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("Scores.Scan: unsupported type %T", src)
	}

	raw := make(map[string]float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("Scores.Scan: %w", err)
	}

	// Keys that are not facet ids cannot match any template; drop them.
	out := make(Scores, len(raw))
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		out[id] = v
	}
	*s = out
	return nil
}
