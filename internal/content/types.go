package content

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityType discriminates the three content variants the CMS tracks.
type EntityType string

const (
	EntityReport EntityType = "report"
	EntityBlog   EntityType = "blog"
	EntityNews   EntityType = "news-article"
)

// TrackedEntities is the fixed order in which variants are enumerated
// during a full sync.
var TrackedEntities = []EntityType{EntityReport, EntityBlog, EntityNews}

// Tag returns the short stable tag used inside search document ids.
func (e EntityType) Tag() string {
	switch e {
	case EntityReport:
		return "report"
	case EntityBlog:
		return "blog"
	case EntityNews:
		return "news"
	}
	return string(e)
}

// ParseEntity maps an event model name to an EntityType.
func ParseEntity(model string) (EntityType, error) {
	switch EntityType(model) {
	case EntityReport, EntityBlog, EntityNews:
		return EntityType(model), nil
	}
	return "", fmt.Errorf("unknown content model %q", model)
}

// Record is one row of a content table, read-only from this worker's
// perspective. The three variants share this shape; fields a variant does
// not model stay nil. Legacy publication-date columns are carried as raw
// strings because the source data is not uniformly typed.
type Record struct {
	Entity EntityType
	ID     int64
	Title  string
	Slug   string
	Locale string

	ShortDescription *string
	Summary          *string // blogs only
	Lead             *string // news articles only

	Industry    *string  // reports model a single industry relation
	Industries  []string // blogs and news articles model many
	Geographies []string // reports only

	// HighlightImage is the raw jsonb relation payload. Its shape varies
	// across variants and CMS versions, so interpreting it is left to the
	// normalizer.
	HighlightImage json.RawMessage

	PublishedAt *string
	PublishedOn *string
	ReleaseDate *string
	CreatedAt   time.Time
}
