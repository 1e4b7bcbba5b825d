package index

import (
	"context"

	"github.com/typesense/typesense-go/typesense/api"
)

// BulkResult reports the per-document outcome of one import call.
type BulkResult struct {
	Succeeded int
	Failed    int
}

// Indexer is the contract for the search engine this worker syncs into.
// It exists so the Typesense client can be swapped for a fake in tests.
type Indexer interface {
	// EnsureCollection provisions the collection schema. A collection
	// that already exists counts as success.
	EnsureCollection(ctx context.Context) error

	// Upsert adds or fully replaces one document, keyed by its id.
	Upsert(ctx context.Context, doc Document) error

	// BulkUpsert imports a batch of documents with upsert semantics and
	// reports per-document outcomes.
	BulkUpsert(ctx context.Context, docs []Document) (BulkResult, error)

	// Delete removes a document by id. Deleting an absent id is success.
	Delete(ctx context.Context, id string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int64, error)

	// Search runs a query against the collection.
	Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error)

	// HealthCheck checks the health of the search engine.
	HealthCheck(ctx context.Context) error

	// Close cleans up any resources held by the indexer.
	Close() error
}
