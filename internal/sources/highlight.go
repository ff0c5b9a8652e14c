package sources

import (
	"regexp"
	"sort"
	"strings"
)

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

type span struct {
	start, end int
}

// Highlight wraps keyword matches in text with <mark> tags. Matching is
// case-insensitive and word-boundary-anchored, in two passes: the full
// keyword phrase first, then each standalone word of the keyword. A word
// occurrence inside a phrase-level match is not wrapped a second time;
// match spans are tracked explicitly so repeated words never nest or
// double-wrap.
func Highlight(text, keyword string) string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return text
	}

	phraseRe, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	if err != nil {
		return text
	}

	spans := make([]span, 0, 4)
	for _, m := range phraseRe.FindAllStringIndex(text, -1) {
		spans = append(spans, span{start: m[0], end: m[1]})
	}

	words := strings.Fields(keyword)
	if len(words) > 1 {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		wordRe, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
		if err == nil {
			for _, m := range wordRe.FindAllStringIndex(text, -1) {
				candidate := span{start: m[0], end: m[1]}
				if !overlapsAny(candidate, spans) {
					spans = append(spans, candidate)
				}
			}
		}
	}

	if len(spans) == 0 {
		return text
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.start])
		b.WriteString(markOpen)
		b.WriteString(text[s.start:s.end])
		b.WriteString(markClose)
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String()
}

func overlapsAny(candidate span, spans []span) bool {
	for _, s := range spans {
		if candidate.start < s.end && s.start < candidate.end {
			return true
		}
	}
	return false
}
