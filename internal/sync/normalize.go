package sync

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"searchsync/internal/content"
	"searchsync/internal/index"
)

// Normalizer maps heterogeneous content records into the canonical
// search document shape. It is pure apart from logging and the
// current-time fallback for records with no usable date.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// accessor pulls one candidate field off a record.
type accessor func(content.Record) *string

// The fallback order for descriptions and publication dates differs per
// variant because the source tables grew their columns at different
// times. Keeping the order in a table makes it a testable artifact
// instead of implicit code order.
var descriptionFields = map[content.EntityType][]accessor{
	content.EntityReport: {shortDescription},
	content.EntityBlog:   {shortDescription, summary},
	content.EntityNews:   {shortDescription, lead},
}

var publishedFields = map[content.EntityType][]accessor{
	content.EntityReport: {publishedAt, publishedOn, releaseDate},
	content.EntityBlog:   {publishedAt},
	content.EntityNews:   {publishedAt, publishedOn},
}

func shortDescription(r content.Record) *string { return r.ShortDescription }
func summary(r content.Record) *string          { return r.Summary }
func lead(r content.Record) *string             { return r.Lead }
func publishedAt(r content.Record) *string      { return r.PublishedAt }
func publishedOn(r content.Record) *string      { return r.PublishedOn }
func releaseDate(r content.Record) *string      { return r.ReleaseDate }

// DocumentID builds the globally unique document id for one
// record+locale pair: "{originalId}_{entityTag}_{locale}".
func DocumentID(id int64, entity content.EntityType, locale string) string {
	return fmt.Sprintf("%d_%s_%s", id, entity.Tag(), locale)
}

// Normalize converts one record. Missing optional fields never fail a
// record; the only error case is a record that cannot be identified at
// all (no id or no locale).
func (n *Normalizer) Normalize(rec content.Record) (index.Document, error) {
	if rec.ID <= 0 {
		return index.Document{}, fmt.Errorf("record has no id (entity %s)", rec.Entity)
	}
	if rec.Locale == "" {
		return index.Document{}, fmt.Errorf("record %d has no locale (entity %s)", rec.ID, rec.Entity)
	}

	doc := index.Document{
		ID:               DocumentID(rec.ID, rec.Entity, rec.Locale),
		OriginalID:       strconv.FormatInt(rec.ID, 10),
		Title:            rec.Title,
		ShortDescription: n.description(rec),
		Slug:             rec.Slug,
		Entity:           string(rec.Entity),
		Locale:           rec.Locale,
		Industries:       n.industries(rec),
		Geographies:      n.geographies(rec),
	}

	doc.HighlightImageURL = n.highlightImageURL(rec)
	doc.PublishedAtMillis = n.publishedMillis(rec)
	if !rec.CreatedAt.IsZero() {
		created := rec.CreatedAt.UnixMilli()
		doc.CreatedAtMillis = &created
	}

	return doc, nil
}

func (n *Normalizer) description(rec content.Record) string {
	for _, get := range descriptionFields[rec.Entity] {
		if v := get(rec); v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return rec.Title
}

func (n *Normalizer) industries(rec content.Record) []string {
	if rec.Industry != nil && strings.TrimSpace(*rec.Industry) != "" {
		return []string{*rec.Industry}
	}
	return cleanNames(rec.Industries)
}

func (n *Normalizer) geographies(rec content.Record) []string {
	if rec.Entity != content.EntityReport {
		return []string{}
	}
	return cleanNames(rec.Geographies)
}

// publishedMillis tries the variant's legacy date fields in order. A
// record with no parseable date falls back to its creation time, then to
// the current instant, so the default sort field is never empty. The
// now-fallback is a degraded path worth noticing in logs.
func (n *Normalizer) publishedMillis(rec content.Record) int64 {
	for _, get := range publishedFields[rec.Entity] {
		if v := get(rec); v != nil {
			if t, ok := parseFlexibleTime(*v); ok {
				return t.UnixMilli()
			}
		}
	}
	if !rec.CreatedAt.IsZero() {
		return rec.CreatedAt.UnixMilli()
	}
	n.logger.Warn("Record has no usable date, falling back to current time",
		"entity", rec.Entity, "id", rec.ID, "locale", rec.Locale)
	return n.now().UnixMilli()
}

// highlightImageURL accepts the shapes the CMS has produced over the
// years: a flat object with a url, a nested relation payload, an array
// whose first element has a url, or a plain string. Anything else yields
// nil rather than an error.
func (n *Normalizer) highlightImageURL(rec content.Record) *string {
	raw := rec.HighlightImage
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		n.logger.Warn("Malformed highlight image payload",
			"entity", rec.Entity, "id", rec.ID, "error", err)
		return nil
	}
	return urlFrom(parsed)
}

func urlFrom(v any) *string {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return &val
	case map[string]any:
		if u, ok := val["url"].(string); ok && u != "" {
			return &u
		}
		if data, ok := val["data"]; ok {
			return urlFrom(data)
		}
		if attrs, ok := val["attributes"]; ok {
			return urlFrom(attrs)
		}
		return nil
	case []any:
		if len(val) == 0 {
			return nil
		}
		return urlFrom(val[0])
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseFlexibleTime parses the date formats seen in the legacy columns,
// including epoch seconds and milliseconds.
func parseFlexibleTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil && epoch > 0 {
		if epoch > 1_000_000_000_000 { // milliseconds
			return time.UnixMilli(epoch), true
		}
		return time.Unix(epoch, 0), true
	}

	return time.Time{}, false
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
