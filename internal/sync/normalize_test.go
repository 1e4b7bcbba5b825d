package sync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchsync/internal/content"
	"searchsync/internal/testutil"
)

func ptr(s string) *string { return &s }

func baseRecord(entity content.EntityType) content.Record {
	return content.Record{
		Entity:    entity,
		ID:        42,
		Title:     "Global Widgets Market",
		Slug:      "global-widgets-market",
		Locale:    "en",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNormalize_IDUniqueAcrossVariantsAndLocales(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())

	seen := map[string]bool{}
	for _, entity := range content.TrackedEntities {
		for _, locale := range []string{"en", "de"} {
			rec := baseRecord(entity)
			rec.Locale = locale

			doc, err := norm.Normalize(rec)
			require.NoError(t, err)

			assert.False(t, seen[doc.ID], "id %q collided", doc.ID)
			seen[doc.ID] = true
			assert.Equal(t, "42", doc.OriginalID)
		}
	}
	assert.Len(t, seen, 6)
}

func TestNormalize_IDStableAcrossCalls(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())
	rec := baseRecord(content.EntityReport)
	rec.PublishedAt = ptr("2024-01-02 03:04:05+00")

	first, err := norm.Normalize(rec)
	require.NoError(t, err)
	second, err := norm.Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "42_report_en", first.ID)
}

func TestNormalize_MissingOptionalsNeverFail(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())

	for _, entity := range content.TrackedEntities {
		rec := baseRecord(entity)

		doc, err := norm.Normalize(rec)
		require.NoError(t, err, "entity %s", entity)

		assert.NotNil(t, doc.Industries)
		assert.Empty(t, doc.Industries)
		assert.NotNil(t, doc.Geographies)
		assert.Empty(t, doc.Geographies)
		assert.Nil(t, doc.HighlightImageURL)
		assert.NotZero(t, doc.PublishedAtMillis)
	}
}

func TestNormalize_ReportRelations(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())
	rec := baseRecord(content.EntityReport)
	rec.Industry = ptr("Healthcare")
	rec.Geographies = []string{"APAC", "EMEA"}

	doc, err := norm.Normalize(rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"Healthcare"}, doc.Industries)
	assert.Equal(t, []string{"APAC", "EMEA"}, doc.Geographies)
}

func TestNormalize_GeographiesEmptyForNonReports(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())
	rec := baseRecord(content.EntityBlog)
	rec.Geographies = []string{"APAC"} // should never happen, but must not leak through

	doc, err := norm.Normalize(rec)
	require.NoError(t, err)
	assert.Empty(t, doc.Geographies)
}

func TestNormalize_DescriptionFallbackOrder(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())

	t.Run("blog falls back to title", func(t *testing.T) {
		rec := baseRecord(content.EntityBlog)
		rec.Title = "Launch"

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, "Launch", doc.ShortDescription)
	})

	t.Run("blog prefers summary over title", func(t *testing.T) {
		rec := baseRecord(content.EntityBlog)
		rec.Summary = ptr("A summary")

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, "A summary", doc.ShortDescription)
	})

	t.Run("short description always wins", func(t *testing.T) {
		rec := baseRecord(content.EntityNews)
		rec.ShortDescription = ptr("The short one")
		rec.Lead = ptr("The lead")

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, "The short one", doc.ShortDescription)
	})

	t.Run("news falls back to lead", func(t *testing.T) {
		rec := baseRecord(content.EntityNews)
		rec.Lead = ptr("The lead")

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, "The lead", doc.ShortDescription)
	})
}

func TestNormalize_HighlightImageShapes(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())

	cases := []struct {
		name    string
		payload string
		want    *string
	}{
		{"flat object", `{"url":"https://cdn/img.png","alternativeText":"alt"}`, ptr("https://cdn/img.png")},
		{"nested relation", `{"data":{"attributes":{"url":"https://cdn/nested.png"}}}`, ptr("https://cdn/nested.png")},
		{"array", `[{"url":"https://cdn/first.png"},{"url":"https://cdn/second.png"}]`, ptr("https://cdn/first.png")},
		{"plain string", `"https://cdn/plain.png"`, ptr("https://cdn/plain.png")},
		{"empty array", `[]`, nil},
		{"unrelated object", `{"foo":"bar"}`, nil},
		{"number", `123`, nil},
		{"malformed json", `{not-json`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := baseRecord(content.EntityReport)
			rec.HighlightImage = json.RawMessage(tc.payload)

			doc, err := norm.Normalize(rec)
			require.NoError(t, err)

			if tc.want == nil {
				assert.Nil(t, doc.HighlightImageURL)
			} else {
				require.NotNil(t, doc.HighlightImageURL)
				assert.Equal(t, *tc.want, *doc.HighlightImageURL)
			}
		})
	}
}

func TestNormalize_PublishedDateFallbackChain(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())
	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	norm.now = func() time.Time { return fixedNow }

	t.Run("first parseable legacy field wins", func(t *testing.T) {
		rec := baseRecord(content.EntityReport)
		rec.PublishedAt = ptr("not a date")
		rec.PublishedOn = ptr("2024-05-06")
		rec.ReleaseDate = ptr("2020-01-01")

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		want := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC).UnixMilli()
		assert.Equal(t, want, doc.PublishedAtMillis)
	})

	t.Run("epoch milliseconds accepted", func(t *testing.T) {
		rec := baseRecord(content.EntityReport)
		rec.PublishedAt = ptr("1714953600000")

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, int64(1714953600000), doc.PublishedAtMillis)
	})

	t.Run("falls back to created time", func(t *testing.T) {
		rec := baseRecord(content.EntityBlog)

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, rec.CreatedAt.UnixMilli(), doc.PublishedAtMillis)
	})

	t.Run("falls back to now as last resort", func(t *testing.T) {
		rec := baseRecord(content.EntityBlog)
		rec.CreatedAt = time.Time{}

		doc, err := norm.Normalize(rec)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.UnixMilli(), doc.PublishedAtMillis)
		assert.Nil(t, doc.CreatedAtMillis)
	})
}

func TestNormalize_RejectsUnidentifiableRecords(t *testing.T) {
	norm := NewNormalizer(testutil.NewTestLogger())

	rec := baseRecord(content.EntityReport)
	rec.ID = 0
	_, err := norm.Normalize(rec)
	assert.Error(t, err)

	rec = baseRecord(content.EntityReport)
	rec.Locale = ""
	_, err = norm.Normalize(rec)
	assert.Error(t, err)
}
