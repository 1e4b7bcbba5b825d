package index

// Document is the canonical search-index representation of one content
// record in one locale. It is fully regenerated on every sync, never
// patched in place.
type Document struct {
	// ID uniquely identifies one record+locale pair across all variants:
	// "{originalId}_{entityTag}_{locale}".
	ID string `json:"id"`
	// OriginalID is the numeric CMS id, kept as a string for the front
	// end to link back with.
	OriginalID        string   `json:"originalId"`
	Title             string   `json:"title"`
	ShortDescription  string   `json:"shortDescription"`
	Slug              string   `json:"slug"`
	Entity            string   `json:"entity"`
	Locale            string   `json:"locale"`
	Industries        []string `json:"industries"`
	Geographies       []string `json:"geographies"`
	HighlightImageURL *string  `json:"highlightImageUrl"`
	// PublishedAtMillis is never zero; the normalizer falls back to the
	// creation time, then to the current instant, so the collection's
	// default sort always has a value.
	PublishedAtMillis int64  `json:"publishedAtMillis"`
	CreatedAtMillis   *int64 `json:"createdAtMillis,omitempty"`
}
