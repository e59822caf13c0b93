package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoresScanDropsMalformedKeys(t *testing.T) {
	id := uuid.New()
	src := []byte(`{"` + id.String() + `": 3, "legacy-facet": 4}`)

	var s Scores
	require.NoError(t, s.Scan(src))

	assert.Equal(t, Scores{id: 3}, s)
}

func TestScoresValueScanKeepsValues(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	in := Scores{a: 2, b: 0}

	v, err := in.Value()
	require.NoError(t, err)

	var out Scores
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestScoresScanNil(t *testing.T) {
	var s Scores
	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)
	assert.Zero(t, s.Get(uuid.New()))
}

func TestAssessmentOlderThanBreaksTiesBySeq(t *testing.T) {
	a := Assessment{Seq: 1}
	b := Assessment{Seq: 2, CreatedAt: a.CreatedAt}

	assert.True(t, a.OlderThan(b))
	assert.False(t, b.OlderThan(a))
}

func TestScored(t *testing.T) {
	assert.False(t, Scored(0))
	assert.False(t, Scored(-1))
	assert.False(t, Scored(5.5))
	assert.True(t, Scored(1))
	assert.True(t, Scored(5))
}
