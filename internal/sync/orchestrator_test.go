package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"searchsync/internal/content"
	"searchsync/internal/index"
	"searchsync/internal/testutil"
)

func TestNeedsFullSync(t *testing.T) {
	cases := []struct {
		name       string
		indexCount int64
		dbCount    int64
		threshold  float64
		want       bool
	}{
		{"empty database never resyncs", 0, 0, 0.9, false},
		{"empty index with rows resyncs", 0, 5, 0.9, true},
		{"below threshold resyncs", 89, 100, 0.9, true},
		{"at threshold stays put", 90, 100, 0.9, false},
		{"full index stays put", 100, 100, 0.9, false},
		{"index ahead of db stays put", 120, 100, 0.9, false},
		{"lower threshold tolerates more drift", 75, 100, 0.7, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, needsFullSync(tc.indexCount, tc.dbCount, tc.threshold))
		})
	}
}

// unhealthyIndexer simulates an unreachable search engine.
type unhealthyIndexer struct {
	*index.InMemoryIndexer
}

func (u *unhealthyIndexer) HealthCheck(ctx context.Context) error {
	return errors.New("connection timed out")
}

func newTestOrchestrator(idx index.Indexer, repo content.Repository) *Orchestrator {
	logger := testutil.NewTestLogger()
	norm := NewNormalizer(logger)
	svc := NewService(idx, repo, norm, logger, Options{BatchSize: 50})
	// Long startup delay: tests drive DecideAndRun directly.
	return NewOrchestrator(idx, repo, svc, logger, time.Hour, 0.9)
}

func TestOrchestrator_UnreachableIndexDegrades(t *testing.T) {
	fake := &unhealthyIndexer{InMemoryIndexer: index.NewInMemoryIndexer()}
	orch := newTestOrchestrator(fake, new(MockRepo))

	orch.Start(context.Background())

	assert.Equal(t, StateDegraded, orch.State())
}

func TestOrchestrator_HealthyIndexReachesSchemaReady(t *testing.T) {
	fake := index.NewInMemoryIndexer()
	orch := newTestOrchestrator(fake, new(MockRepo))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.Start(ctx)

	assert.Equal(t, StateSchemaReady, orch.State())
	assert.Equal(t, 1, fake.EnsureCalls())
}

func TestOrchestrator_StaleIndexTriggersFullSync(t *testing.T) {
	repo := new(MockRepo)
	fake := index.NewInMemoryIndexer()
	orch := newTestOrchestrator(fake, repo)

	repo.On("CountPublished", mock.Anything, content.EntityReport).Return(int64(1), nil)
	repo.On("CountPublished", mock.Anything, content.EntityBlog).Return(int64(0), nil)
	repo.On("CountPublished", mock.Anything, content.EntityNews).Return(int64(0), nil)
	repo.On("ListPublished", mock.Anything, content.EntityReport, 50, 0).
		Return([]content.Record{record(content.EntityReport, 1)}, nil)

	orch.DecideAndRun(context.Background())

	assert.Equal(t, StateUpToDate, orch.State())
	count, _ := fake.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestOrchestrator_CurrentIndexSkipsFullSync(t *testing.T) {
	repo := new(MockRepo)
	fake := index.NewInMemoryIndexer()
	orch := newTestOrchestrator(fake, repo)

	// One document already present, one published row: index is current.
	doc, err := NewNormalizer(testutil.NewTestLogger()).Normalize(record(content.EntityReport, 1))
	assert.NoError(t, err)
	assert.NoError(t, fake.Upsert(context.Background(), doc))

	repo.On("CountPublished", mock.Anything, content.EntityReport).Return(int64(1), nil)
	repo.On("CountPublished", mock.Anything, content.EntityBlog).Return(int64(0), nil)
	repo.On("CountPublished", mock.Anything, content.EntityNews).Return(int64(0), nil)

	orch.DecideAndRun(context.Background())

	assert.Equal(t, StateUpToDate, orch.State())
	repo.AssertNotCalled(t, "ListPublished", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_IndexCountFailureSkipsDecision(t *testing.T) {
	repo := new(MockRepo)
	fake := &failingCountIndexer{InMemoryIndexer: index.NewInMemoryIndexer()}
	orch := newTestOrchestrator(fake, repo)

	orch.DecideAndRun(context.Background())

	// Decision skipped entirely: no repo calls, state untouched.
	repo.AssertNotCalled(t, "CountPublished", mock.Anything, mock.Anything)
	assert.Equal(t, StateUninitialized, orch.State())
}

type failingCountIndexer struct {
	*index.InMemoryIndexer
}

func (f *failingCountIndexer) Count(ctx context.Context) (int64, error) {
	return 0, errors.New("collection not found")
}
