package index

import (
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"
)

// CollectionSchema declares the search collection's field set. The
// schema is created once and never migrated in place; changing a field
// type requires dropping and recreating the collection.
func CollectionSchema(name string) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "originalId", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "shortDescription", Type: "string"},
			{Name: "slug", Type: "string"},

			// Discriminators the front end filters and counts by.
			{Name: "entity", Type: "string", Facet: pointer.True()},
			{Name: "locale", Type: "string", Facet: pointer.True()},
			{Name: "industries", Type: "string[]", Facet: pointer.True()},
			{Name: "geographies", Type: "string[]", Facet: pointer.True()},

			{Name: "highlightImageUrl", Type: "string", Optional: pointer.True()},

			{Name: "publishedAtMillis", Type: "int64", Sort: pointer.True()},
			{Name: "createdAtMillis", Type: "int64", Optional: pointer.True()},
		},
		DefaultSortingField: pointer.String("publishedAtMillis"),
	}
}
