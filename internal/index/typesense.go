package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
	"github.com/typesense/typesense-go/typesense/api/pointer"
)

// TypesenseIndexer talks to a remote Typesense cluster. The underlying
// client is created on first use and shared for the process lifetime;
// each call is a self-contained request so concurrent use is safe.
type TypesenseIndexer struct {
	url         string
	apiKey      string
	collection  string
	connTimeout time.Duration

	once   sync.Once
	client *typesense.Client
}

type TypesenseConfig struct {
	URL         string
	APIKey      string
	Collection  string
	ConnTimeout time.Duration
}

func NewTypesenseIndexer(cfg TypesenseConfig) *TypesenseIndexer {
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 5 * time.Second
	}
	return &TypesenseIndexer{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		collection:  cfg.Collection,
		connTimeout: cfg.ConnTimeout,
	}
}

func (t *TypesenseIndexer) c() *typesense.Client {
	t.once.Do(func() {
		t.client = typesense.NewClient(
			typesense.WithServer(t.url),
			typesense.WithAPIKey(t.apiKey),
			typesense.WithConnectionTimeout(t.connTimeout),
		)
	})
	return t.client
}

// EnsureCollection attempts creation with the fixed schema. A 409 from
// Typesense means the collection already exists and is treated as success.
func (t *TypesenseIndexer) EnsureCollection(ctx context.Context) error {
	_, err := t.c().Collections().Create(ctx, CollectionSchema(t.collection))
	if err != nil {
		if hasStatus(err, http.StatusConflict) {
			return nil
		}
		return fmt.Errorf("typesense create collection failed: %w", err)
	}
	return nil
}

func (t *TypesenseIndexer) Upsert(ctx context.Context, doc Document) error {
	_, err := t.c().Collection(t.collection).Documents().Upsert(ctx, doc)
	if err != nil {
		return fmt.Errorf("typesense upsert failed: %w", err)
	}
	return nil
}

func (t *TypesenseIndexer) BulkUpsert(ctx context.Context, docs []Document) (BulkResult, error) {
	if len(docs) == 0 {
		return BulkResult{}, nil
	}

	payload := make([]interface{}, len(docs))
	for i, d := range docs {
		payload[i] = d
	}

	params := &api.ImportDocumentsParams{
		Action:    pointer.String("upsert"),
		BatchSize: pointer.Int(len(docs)),
	}
	responses, err := t.c().Collection(t.collection).Documents().Import(ctx, payload, params)
	if err != nil {
		return BulkResult{}, fmt.Errorf("typesense import failed: %w", err)
	}

	var result BulkResult
	for _, resp := range responses {
		if resp.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// Delete removes a document by id. The absence of a document is not an
// error for a delete, so a 404 is swallowed.
func (t *TypesenseIndexer) Delete(ctx context.Context, id string) error {
	_, err := t.c().Collection(t.collection).Document(id).Delete(ctx)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil
		}
		return fmt.Errorf("typesense delete failed: %w", err)
	}
	return nil
}

func (t *TypesenseIndexer) Count(ctx context.Context) (int64, error) {
	resp, err := t.c().Collection(t.collection).Retrieve(ctx)
	if err != nil {
		return 0, fmt.Errorf("typesense collection retrieve failed: %w", err)
	}
	if resp.NumDocuments == nil {
		return 0, nil
	}
	return *resp.NumDocuments, nil
}

func (t *TypesenseIndexer) Search(ctx context.Context, params *api.SearchCollectionParams) (*api.SearchResult, error) {
	result, err := t.c().Collection(t.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("typesense search failed: %w", err)
	}
	return result, nil
}

func (t *TypesenseIndexer) HealthCheck(ctx context.Context) error {
	isHealthy, err := t.c().Health(ctx, t.connTimeout)
	if err != nil {
		return fmt.Errorf("typesense health check failed: %w", err)
	}
	if !isHealthy {
		return fmt.Errorf("typesense is unhealthy")
	}
	return nil
}

func (t *TypesenseIndexer) Close() error {
	// The Typesense client does not require explicit closure.
	return nil
}

func hasStatus(err error, status int) bool {
	var httpErr *typesense.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == status
	}
	return false
}
