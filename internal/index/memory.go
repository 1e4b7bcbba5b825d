package index

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"
)

// InMemoryIndexer is a thread-safe fake for tests. It mimics the
// engine's semantics: upsert replaces by id, deleting an absent id
// succeeds, creating an existing collection succeeds.
type InMemoryIndexer struct {
	mu      sync.RWMutex
	created bool
	ensures int
	store   map[string]Document
}

func NewInMemoryIndexer() *InMemoryIndexer {
	return &InMemoryIndexer{store: make(map[string]Document)}
}

func (i *InMemoryIndexer) EnsureCollection(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ensures++
	// An existing collection answers 409, which callers treat as success.
	i.created = true
	return nil
}

func (i *InMemoryIndexer) Upsert(ctx context.Context, doc Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.store[doc.ID] = doc
	return nil
}

func (i *InMemoryIndexer) BulkUpsert(ctx context.Context, docs []Document) (BulkResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, doc := range docs {
		i.store[doc.ID] = doc
	}
	return BulkResult{Succeeded: len(docs)}, nil
}

func (i *InMemoryIndexer) Delete(ctx context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.store, id)
	return nil
}

func (i *InMemoryIndexer) Count(ctx context.Context) (int64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return int64(len(i.store)), nil
}

// Search does a naive substring match on title and shortDescription,
// enough for handler tests.
func (i *InMemoryIndexer) Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	q := strings.ToLower(params.Q)
	var hits []api.SearchResultHit
	for _, doc := range i.store {
		if q != "" && q != "*" &&
			!strings.Contains(strings.ToLower(doc.Title), q) &&
			!strings.Contains(strings.ToLower(doc.ShortDescription), q) {
			continue
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var asMap map[string]interface{}
		if err := json.Unmarshal(raw, &asMap); err != nil {
			return nil, err
		}
		hits = append(hits, api.SearchResultHit{Document: &asMap})
	}

	return &api.SearchResult{
		Found: pointer.Int(len(hits)),
		Hits:  &hits,
	}, nil
}

func (i *InMemoryIndexer) HealthCheck(ctx context.Context) error {
	return nil
}

func (i *InMemoryIndexer) Close() error {
	return nil
}

// --- test helpers, not part of the Indexer interface ---

// Get lets tests inspect one stored document.
func (i *InMemoryIndexer) Get(id string) (Document, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	doc, ok := i.store[id]
	return doc, ok
}

// IDs returns the stored document ids, unordered.
func (i *InMemoryIndexer) IDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := make([]string, 0, len(i.store))
	for id := range i.store {
		ids = append(ids, id)
	}
	return ids
}

// EnsureCalls reports how many times EnsureCollection ran.
func (i *InMemoryIndexer) EnsureCalls() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ensures
}

// Clear resets the stored documents.
func (i *InMemoryIndexer) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.store = make(map[string]Document)
}
