package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SourceType represents the kind of document a matched passage came from
type SourceType string

const (
	SourceTypeOpinion SourceType = "opinion"
	SourceTypeURL     SourceType = "url"
	SourceTypeFile    SourceType = "file"
)

// PrimaryKey is the opaque ordering key of an entity, unique within its
// source. The backend emits it as either a number or a string; both are
// kept as their textual form and compared numerically when possible.
type PrimaryKey string

// UnmarshalJSON accepts a JSON number or string.
func (pk *PrimaryKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*pk = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*pk = PrimaryKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*pk = PrimaryKey(n.String())
	return nil
}

// Less orders primary keys numerically when both sides parse as integers,
// lexicographically otherwise.
func (pk PrimaryKey) Less(other PrimaryKey) bool {
	a, errA := strconv.ParseInt(string(pk), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	if errA == nil && errB == nil {
		return a < b
	}
	return pk < other
}

// LooseString is a string field the backend sometimes serializes as a
// number (e.g. cluster IDs).
type LooseString string

// UnmarshalJSON accepts a JSON number or string.
func (ls *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*ls = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ls = LooseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*ls = LooseString(n.String())
	return nil
}

// EntityMetadata is the typed form of the backend's open metadata mapping.
// Every field is optional; the presenter substitutes documented defaults
// rather than failing on absent fields.
type EntityMetadata struct {
	CaseName     string      `json:"case_name,omitempty"`
	CourtName    string      `json:"court_name,omitempty"`
	ClusterID    LooseString `json:"cluster_id,omitempty"`
	Slug         string      `json:"slug,omitempty"`
	AuthorName   string      `json:"author_name,omitempty"`
	DateFiled    string      `json:"date_filed,omitempty"`
	DateBlocked  string      `json:"date_blocked,omitempty"`
	OpinionCode  string      `json:"type,omitempty"`
	DownloadURL  string      `json:"download_url,omitempty"`
	CourtSummary string      `json:"summary,omitempty"`
	AISummary    string      `json:"ai_summary,omitempty"`
	OtherDates   string      `json:"other_dates,omitempty"`
	Source       string      `json:"source,omitempty"`
	Title        string      `json:"title,omitempty"`
	Timestamp    *float64    `json:"timestamp,omitempty"`
	PageNumber   *int        `json:"page_number,omitempty"`
}

// RawResultEntity is one matched passage returned by a backend search or
// browse call. Immutable; consumed once per request and never persisted.
type RawResultEntity struct {
	PK       PrimaryKey     `json:"pk"`
	Text     string         `json:"text"`
	Distance *float64       `json:"distance,omitempty"`
	Metadata EntityMetadata `json:"metadata"`
}

// SourceRef describes the document a passage originated from, without the
// entity payload.
type SourceRef struct {
	ID   string     `json:"id"`
	Type SourceType `json:"type"`
}

// RawResult is one raw search hit: a source descriptor plus its entity.
type RawResult struct {
	SourceRef
	Entity RawResultEntity `json:"entity"`
}

// SourceGroup is the aggregation unit: all entities sharing one source ID.
// Entities are unique by primary key and sorted ascending by it; groups
// are globally ordered by InsertionOrder, not by relevance score.
type SourceGroup struct {
	Source         SourceRef
	Entities       []RawResultEntity
	InsertionOrder int
}

// PresentedEntity is a display-ready passage.
type PresentedEntity struct {
	Text       string   `json:"text"`
	MatchScore *float64 `json:"match_score,omitempty"`
	PageNumber *int     `json:"page_number,omitempty"`
}

// PresentedSource is the display-ready form of a SourceGroup. Only the
// fields for the group's source type are populated; the rest stay empty.
type PresentedSource struct {
	Index       int               `json:"index"`
	Type        SourceType        `json:"type"`
	Entities    []PresentedEntity `json:"entities"`
	EntityCount int               `json:"num_entities"`

	// opinion
	CaseName     string `json:"case_name,omitempty"`
	CourtName    string `json:"court_name,omitempty"`
	URL          string `json:"url,omitempty"`
	AuthorInfo   string `json:"author_info,omitempty"`
	OpinionType  string `json:"opinion_type,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	CourtSummary string `json:"courtlistener_summary,omitempty"`
	OtherDates   string `json:"other_dates,omitempty"`

	// opinion and url
	AISummary string `json:"ai_summary,omitempty"`

	// url
	SourceName string `json:"source,omitempty"`
	Title      string `json:"title,omitempty"`

	// url and file
	Timestamp string `json:"timestamp,omitempty"`

	// file
	Filename string `json:"filename,omitempty"`
	FileIcon string `json:"file_icon,omitempty"`
}

// ValidateRawResult checks the aggregation-boundary contract.
func ValidateRawResult(r *RawResult) error {
	if r == nil {
		return fmt.Errorf("raw result cannot be nil")
	}
	if r.ID == "" {
		return ErrMissingRequiredField
	}
	if r.Entity.PK == "" {
		return NewInvalidEntityError(r.ID)
	}
	return nil
}
