package sources

import (
	"testing"

	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"ZeroDistance", 0.0, 1.0},
		{"MidDistance", 1.0, 0.5},
		{"MaxDistance", 2.0, 0.0},
		{"BeyondMaxClamped", 3.0, 0.0},
		{"Rounded", 0.123456789, 0.93827161},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MatchScore(tt.distance), 1e-9)
		})
	}
}

func TestMatchScoreMonotonic(t *testing.T) {
	distances := []float64{0, 0.25, 0.5, 1, 1.5, 2, 2.5, 3}
	prev := 1.1
	for _, d := range distances {
		score := MatchScore(d)
		assert.LessOrEqual(t, score, prev, "distance %v", d)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		prev = score
	}
}

func TestFormatEntityEscapesAndHighlights(t *testing.T) {
	entity := domain.RawResultEntity{
		PK:   "1",
		Text: "a < b\ndue process",
	}

	presented := FormatEntity(entity, "due process")
	assert.Equal(t, "a &lt; b<br><mark>due process</mark>", presented.Text)
	assert.Nil(t, presented.MatchScore)
	assert.Nil(t, presented.PageNumber)
}

func TestFormatEntityCarriesScoreAndPage(t *testing.T) {
	entity := domain.RawResultEntity{
		PK:       "1",
		Text:     "passage",
		Distance: floatPtr(0.5),
		Metadata: domain.EntityMetadata{PageNumber: intPtr(12)},
	}

	presented := FormatEntity(entity, "")
	require.NotNil(t, presented.MatchScore)
	assert.InDelta(t, 0.75, *presented.MatchScore, 1e-9)
	require.NotNil(t, presented.PageNumber)
	assert.Equal(t, 12, *presented.PageNumber)
}

func TestFormatEntitiesPreservesOrder(t *testing.T) {
	entities := []domain.RawResultEntity{
		{PK: "1", Text: "first"},
		{PK: "2", Text: "second"},
	}

	presented := FormatEntities(entities, "")
	require.Len(t, presented, 2)
	assert.Equal(t, "first", presented[0].Text)
	assert.Equal(t, "second", presented[1].Text)
}
