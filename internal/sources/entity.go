package sources

import (
	"html"
	"math"
	"strings"

	"github.com/casefold-ai/lexgate/internal/domain"
)

// FormatEntity converts a raw passage into its display form: the text is
// HTML-escaped, keyword-highlighted, and newline-to-break converted. A
// vector distance, when present, becomes a similarity score; a page
// number is carried through unchanged.
func FormatEntity(entity domain.RawResultEntity, keyword string) domain.PresentedEntity {
	text := html.EscapeString(entity.Text)
	if keyword != "" {
		text = Highlight(text, keyword)
	}
	text = strings.ReplaceAll(text, "\n", "<br>")

	presented := domain.PresentedEntity{Text: text}
	if entity.Distance != nil {
		score := MatchScore(*entity.Distance)
		presented.MatchScore = &score
	}
	if entity.Metadata.PageNumber != nil {
		page := *entity.Metadata.PageNumber
		presented.PageNumber = &page
	}
	return presented
}

// FormatEntities maps FormatEntity over a group's entities.
func FormatEntities(entities []domain.RawResultEntity, keyword string) []domain.PresentedEntity {
	presented := make([]domain.PresentedEntity, len(entities))
	for i, entity := range entities {
		presented[i] = FormatEntity(entity, keyword)
	}
	return presented
}

// MatchScore maps cosine distance in [0,2] to a similarity score in
// [0,1], clamped at 0 for distances beyond 2 and rounded to 8 decimal
// places.
func MatchScore(distance float64) float64 {
	score := (2 - distance) / 2
	if score < 0 {
		score = 0
	}
	return math.Round(score*1e8) / 1e8
}
