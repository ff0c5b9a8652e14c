package sources

import (
	"bytes"
	"fmt"
	"log"

	"github.com/casefold-ai/lexgate/internal/domain"
	"github.com/yuin/goldmark"
)

const maxCaseNameLength = 150

// Present converts an aggregated group into a display-ready record for
// the given 1-based index. The keyword, when non-empty, is highlighted in
// every passage. Absent metadata fields get documented defaults; only a
// malformed date is an error.
func Present(group *domain.SourceGroup, index int, keyword string) (*domain.PresentedSource, error) {
	if group == nil || len(group.Entities) == 0 {
		return nil, fmt.Errorf("cannot present empty source group")
	}

	presented := &domain.PresentedSource{
		Index:       index,
		Type:        group.Source.Type,
		Entities:    FormatEntities(group.Entities, keyword),
		EntityCount: len(group.Entities),
	}

	// Source-level metadata rides on the first entity.
	meta := group.Entities[0].Metadata

	switch group.Source.Type {
	case domain.SourceTypeOpinion:
		authorInfo, err := AuthorInfo(meta)
		if err != nil {
			return nil, err
		}
		presented.CaseName = TruncateText(meta.CaseName, maxCaseNameLength)
		presented.CourtName = meta.CourtName
		presented.URL = fmt.Sprintf("https://www.courtlistener.com/opinion/%s/%s", meta.ClusterID, meta.Slug)
		presented.AuthorInfo = authorInfo
		presented.OpinionType = OpinionTypeLabel(meta.OpinionCode)
		presented.DownloadURL = meta.DownloadURL
		presented.CourtSummary = meta.CourtSummary
		presented.OtherDates = meta.OtherDates
		presented.AISummary = renderMarkdown(meta.AISummary)

	case domain.SourceTypeURL:
		presented.URL = group.Source.ID
		presented.SourceName = meta.Source
		if presented.SourceName == "" {
			presented.SourceName = group.Source.ID
		}
		presented.Title = meta.Title
		if presented.Title == "" {
			presented.Title = "Title Not Found"
		}
		presented.AISummary = renderMarkdown(meta.AISummary)
		ts, err := formatOptionalTimestamp(meta.Timestamp)
		if err != nil {
			return nil, err
		}
		presented.Timestamp = ts

	case domain.SourceTypeFile:
		presented.Filename = group.Source.ID
		presented.FileIcon = FileIcon(group.Source.ID)
		ts, err := formatOptionalTimestamp(meta.Timestamp)
		if err != nil {
			return nil, err
		}
		presented.Timestamp = ts

	default:
		return nil, domain.ErrInvalidSourceType
	}

	return presented, nil
}

// PresentAll aggregates raw hits and presents every group in order.
func PresentAll(results []domain.RawResult, keyword string) ([]*domain.PresentedSource, error) {
	groups, err := Aggregate(results)
	if err != nil {
		return nil, err
	}

	presented := make([]*domain.PresentedSource, len(groups))
	for i, group := range groups {
		p, err := Present(group, i+1, keyword)
		if err != nil {
			return nil, err
		}
		presented[i] = p
	}
	return presented, nil
}

// formatOptionalTimestamp formats a metadata timestamp when one is set.
// A zero epoch value is treated as unset, not as January 1, 1970.
func formatOptionalTimestamp(epoch *float64) (string, error) {
	if epoch == nil || *epoch == 0 {
		return "", nil
	}
	return FormatTimestamp(*epoch)
}

// renderMarkdown converts an AI-generated summary from markdown to HTML.
// An empty summary stays empty.
func renderMarkdown(summary string) string {
	if summary == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(summary), &buf); err != nil {
		log.Printf("markdown conversion failed: %v", err)
		return summary
	}
	return buf.String()
}
