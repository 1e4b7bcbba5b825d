package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"searchsync/internal/content"
	"searchsync/internal/index"
)

// State is the orchestrator's startup progression:
// Uninitialized → HealthChecking → (SchemaReady | Degraded) →
// (FullSyncScheduled | UpToDate).
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateHealthChecking    State = "health-checking"
	StateSchemaReady       State = "schema-ready"
	StateDegraded          State = "degraded"
	StateFullSyncScheduled State = "full-sync-scheduled"
	StateUpToDate          State = "up-to-date"
)

// Orchestrator runs the startup sequence: verify index health, provision
// the schema, and decide whether the index needs a full resync. Index
// unavailability is never fatal; the process keeps serving without
// search.
type Orchestrator struct {
	indexer index.Indexer
	repo    content.Repository
	svc     *Service
	logger  *slog.Logger

	startupDelay    time.Duration
	resyncThreshold float64

	mu    sync.RWMutex
	state State
}

func NewOrchestrator(indexer index.Indexer, repo content.Repository, svc *Service, logger *slog.Logger, startupDelay time.Duration, resyncThreshold float64) *Orchestrator {
	if resyncThreshold <= 0 || resyncThreshold > 1 {
		resyncThreshold = 0.9
	}
	return &Orchestrator{
		indexer:         indexer,
		repo:            repo,
		svc:             svc,
		logger:          logger,
		startupDelay:    startupDelay,
		resyncThreshold: resyncThreshold,
		state:           StateUninitialized,
	}
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Info("Sync orchestrator state change", "state", string(s))
}

// Start runs health check and schema provisioning, then schedules the
// resync decision after the startup delay so the host finishes booting
// first. It returns once the synchronous part is done.
func (o *Orchestrator) Start(ctx context.Context) {
	o.setState(StateHealthChecking)

	if err := o.indexer.HealthCheck(ctx); err != nil {
		o.logger.Warn("Search index unreachable, continuing without search", "error", err)
		o.setState(StateDegraded)
		return
	}

	if err := o.indexer.EnsureCollection(ctx); err != nil {
		o.logger.Error("Failed to provision collection schema, continuing without search", "error", err)
		o.setState(StateDegraded)
		return
	}
	o.setState(StateSchemaReady)

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.startupDelay):
		}
		o.DecideAndRun(ctx)
	}()
}

// DecideAndRun compares the index document count to the published row
// count and runs a full sync in place when the index looks stale.
func (o *Orchestrator) DecideAndRun(ctx context.Context) {
	indexCount, err := o.indexer.Count(ctx)
	if err != nil {
		o.logger.Warn("Could not read index count, skipping resync decision", "error", err)
		return
	}

	var dbCount int64
	for _, entity := range content.TrackedEntities {
		count, err := o.repo.CountPublished(ctx, entity)
		if err != nil {
			o.logger.Warn("Could not count rows for resync decision",
				"entity", entity, "error", err)
			continue
		}
		dbCount += count
	}

	if !needsFullSync(indexCount, dbCount, o.resyncThreshold) {
		o.logger.Info("Index is current, no resync needed",
			"index_count", indexCount, "db_count", dbCount)
		o.setState(StateUpToDate)
		return
	}

	o.logger.Info("Index is stale, scheduling full sync",
		"index_count", indexCount, "db_count", dbCount, "threshold", o.resyncThreshold)
	o.setState(StateFullSyncScheduled)
	o.svc.SyncAll(ctx)
	o.setState(StateUpToDate)
}

// ArmDailyResync registers the recurring full sync as a consistency
// backstop, independent of the startup decision.
func (o *Orchestrator) ArmDailyResync(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, func() {
		o.logger.Info("Scheduled full sync starting", "schedule", spec)
		o.svc.SyncAll(context.Background())
	})
	return err
}

// needsFullSync applies the staleness heuristic: an empty index with
// rows present, or an index holding less than threshold × the published
// row count.
func needsFullSync(indexCount, dbCount int64, threshold float64) bool {
	if dbCount == 0 {
		return false
	}
	if indexCount == 0 {
		return true
	}
	return float64(indexCount) < threshold*float64(dbCount)
}
