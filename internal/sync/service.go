package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"searchsync/internal/content"
	"searchsync/internal/index"
)

// Options tunes the bulk synchronizer.
type Options struct {
	// BatchSize is the page size for the full-sync sweep.
	BatchSize int
	// BatchPause is a deliberate rate limit between batch imports.
	BatchPause time.Duration
}

// Service keeps the search collection consistent with the content
// tables. SyncAll is the batched full sweep; UpsertOne and DeleteOne are
// the single-document paths the lifecycle hooks use. Both paths write
// by document id only, so they are safe to run concurrently.
type Service struct {
	indexer    index.Indexer
	repo       content.Repository
	norm       *Normalizer
	logger     *slog.Logger
	batchSize  int
	batchPause time.Duration
	tracer     trace.Tracer
}

func NewService(indexer index.Indexer, repo content.Repository, norm *Normalizer, logger *slog.Logger, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Service{
		indexer:    indexer,
		repo:       repo,
		norm:       norm,
		logger:     logger,
		batchSize:  opts.BatchSize,
		batchPause: opts.BatchPause,
		tracer:     otel.Tracer("searchsync/sync"),
	}
}

// EntityStat is the per-variant outcome of one full-sync run.
type EntityStat struct {
	Entity  content.EntityType
	Total   int
	Indexed int
	Failed  int
}

// RunReport aggregates one full-sync run. A run never aborts because of
// one bad record, batch, or content type; failures only show up here.
type RunReport struct {
	RunID    string
	Entities []EntityStat
	Indexed  int
	Failed   int
	Elapsed  time.Duration
}

// SyncAll sweeps every tracked variant in fixed order and upserts every
// published row into the index. Re-running against an unchanged store
// leaves the index unchanged.
func (s *Service) SyncAll(ctx context.Context) RunReport {
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "sync.full",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	started := time.Now()
	s.logger.InfoContext(ctx, "Starting full sync", "run_id", runID, "batch_size", s.batchSize)

	report := RunReport{RunID: runID}
	for _, entity := range content.TrackedEntities {
		stat := s.syncEntity(ctx, runID, entity)
		report.Entities = append(report.Entities, stat)
		report.Indexed += stat.Indexed
		report.Failed += stat.Failed
	}
	report.Elapsed = time.Since(started)

	s.logger.InfoContext(ctx, "Full sync finished",
		"run_id", runID,
		"indexed", report.Indexed,
		"failed", report.Failed,
		"elapsed", report.Elapsed.String(),
	)
	span.SetAttributes(
		attribute.Int("documents.indexed", report.Indexed),
		attribute.Int("documents.failed", report.Failed),
	)

	s.verify(ctx, runID, report)
	return report
}

func (s *Service) syncEntity(ctx context.Context, runID string, entity content.EntityType) EntityStat {
	ctx, span := s.tracer.Start(ctx, "sync.entity",
		trace.WithAttributes(attribute.String("entity", string(entity))))
	defer span.End()

	stat := EntityStat{Entity: entity}

	total, err := s.repo.CountPublished(ctx, entity)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count rows, skipping entity",
			"run_id", runID, "entity", entity, "error", err)
		return stat
	}
	stat.Total = int(total)

	for offset := 0; offset < stat.Total; offset += s.batchSize {
		batchFailed := s.syncBatch(ctx, runID, entity, offset, &stat)

		remaining := stat.Total - offset - s.batchSize
		if remaining > 0 && s.batchPause > 0 && !batchFailed {
			select {
			case <-ctx.Done():
				s.logger.WarnContext(ctx, "Sync cancelled mid-entity",
					"run_id", runID, "entity", entity, "offset", offset)
				return stat
			case <-time.After(s.batchPause):
			}
		}
	}

	s.logger.InfoContext(ctx, "Entity sync complete",
		"run_id", runID, "entity", entity,
		"total", stat.Total, "indexed", stat.Indexed, "failed", stat.Failed)
	return stat
}

// syncBatch fetches, normalizes and imports one page. Per-record
// normalization errors drop the record, a failed import drops the batch;
// neither stops the run. The return value reports a batch-level failure.
func (s *Service) syncBatch(ctx context.Context, runID string, entity content.EntityType, offset int, stat *EntityStat) bool {
	rows, err := s.repo.ListPublished(ctx, entity, s.batchSize, offset)
	if err != nil {
		failed := stat.Total - offset
		if failed > s.batchSize {
			failed = s.batchSize
		}
		stat.Failed += failed
		s.logger.ErrorContext(ctx, "Batch fetch failed, continuing with next batch",
			"run_id", runID, "entity", entity, "offset", offset, "error", err)
		return true
	}

	docs := make([]index.Document, 0, len(rows))
	for _, rec := range rows {
		doc, err := s.norm.Normalize(rec)
		if err != nil {
			stat.Failed++
			s.logger.WarnContext(ctx, "Record excluded from batch",
				"run_id", runID, "entity", entity, "record_id", rec.ID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return false
	}

	result, err := s.indexer.BulkUpsert(ctx, docs)
	if err != nil {
		stat.Failed += len(docs)
		s.logger.ErrorContext(ctx, "Batch import failed, continuing with next batch",
			"run_id", runID, "entity", entity, "offset", offset, "error", err)
		return true
	}

	stat.Indexed += result.Succeeded
	stat.Failed += result.Failed
	return false
}

// verify compares the index count against the swept row counts, purely
// for observability. A verification failure never fails the run.
func (s *Service) verify(ctx context.Context, runID string, report RunReport) {
	indexCount, err := s.indexer.Count(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Post-sync verification failed",
			"run_id", runID, "error", err)
		return
	}

	var dbTotal int
	for _, stat := range report.Entities {
		dbTotal += stat.Total
	}

	if indexCount < int64(dbTotal) {
		s.logger.WarnContext(ctx, "Index count below source count after sync",
			"run_id", runID, "index_count", indexCount, "db_count", dbTotal)
		return
	}
	s.logger.InfoContext(ctx, "Post-sync verification",
		"run_id", runID, "index_count", indexCount, "db_count", dbTotal)
}

// UpsertOne re-fetches one row with its relations and upserts its
// document. A row that no longer exists is skipped, not an error: the
// corresponding delete event deals with it.
func (s *Service) UpsertOne(ctx context.Context, entity content.EntityType, id int64) (index.Document, error) {
	rec, err := s.repo.GetByID(ctx, entity, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.WarnContext(ctx, "Row not found for upsert, skipping",
				"entity", entity, "id", id)
			return index.Document{}, nil
		}
		return index.Document{}, err
	}

	doc, err := s.norm.Normalize(rec)
	if err != nil {
		return index.Document{}, err
	}

	if err := s.indexer.Upsert(ctx, doc); err != nil {
		return index.Document{}, err
	}
	return doc, nil
}

// DeleteOne removes the document for one record+locale pair. Deleting an
// id the index never had succeeds.
func (s *Service) DeleteOne(ctx context.Context, entity content.EntityType, id int64, locale string) error {
	return s.indexer.Delete(ctx, DocumentID(id, entity, locale))
}
