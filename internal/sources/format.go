package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/casefold-ai/lexgate/internal/domain"
)

var opinionTypes = map[string]string{
	"010combined":         "Combined",
	"015unamimous":        "Unanimous",
	"015unaminous":        "Unanimous",
	"020lead":             "Lead",
	"025plurality":        "Plurality",
	"030concurrence":      "Concurrence",
	"035concurrenceinpart": "Concurrence in Part",
	"040dissent":          "Dissent",
	"050addendum":         "Addendum",
	"060remittitur":       "Remittitur",
	"070rehearing":        "Rehearing",
	"080onthemerits":      "On the Merits",
	"090onmotiontostrike": "On Motion to Strike",
}

// OpinionTypeLabel maps a CourtListener opinion code to a display label.
// Unknown codes map to "Unknown".
func OpinionTypeLabel(code string) string {
	if label, ok := opinionTypes[code]; ok {
		return label
	}
	return "Unknown"
}

// TruncateText shortens text to maxLength characters, appending an
// ellipsis when anything was cut.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}

// FileIcon picks the icon tag for a filename by extension.
func FileIcon(filename string) string {
	parts := strings.Split(filename, ".")
	switch strings.ToLower(parts[len(parts)-1]) {
	case "txt":
		return "bi-file-text"
	case "doc", "docx":
		return "bi-file-word"
	case "pdf":
		return "bi-file-pdf"
	default:
		return "bi-file-earmark"
	}
}

// FormatDate converts a YYYY-MM-DD date string to its long form, e.g.
// "2024-03-05" to "March 5, 2024". A malformed input is a caller error,
// not an expected runtime condition.
func FormatDate(dateString string) (string, error) {
	t, err := time.Parse("2006-01-02", dateString)
	if err != nil {
		return "", domain.NewDateFormatError(dateString, err)
	}
	return fmt.Sprintf("%s %d, %d", t.Month().String(), t.Day(), t.Year()), nil
}

// FormatTimestamp converts a Unix epoch timestamp to the long date form.
func FormatTimestamp(epoch float64) (string, error) {
	t := time.Unix(int64(epoch), 0).UTC()
	return FormatDate(t.Format("2006-01-02"))
}

// AuthorInfo composes the "{author} | {filed date}" line for an opinion,
// appending " | Blocked {date}" when a block date exists. The author
// defaults to "Unknown Author"; an absent filing date leaves the date
// part empty.
func AuthorInfo(meta domain.EntityMetadata) (string, error) {
	author := meta.AuthorName
	if author == "" {
		author = "Unknown Author"
	}

	dates := ""
	if meta.DateFiled != "" {
		filed, err := FormatDate(meta.DateFiled)
		if err != nil {
			return "", err
		}
		dates = filed
	}
	if meta.DateBlocked != "" {
		blocked, err := FormatDate(meta.DateBlocked)
		if err != nil {
			return "", err
		}
		dates += fmt.Sprintf(" | Blocked %s", blocked)
	}

	return fmt.Sprintf("%s | %s", author, dates), nil
}
