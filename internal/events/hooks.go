package events

import (
	"context"
	"log/slog"

	"searchsync/internal/content"
	"searchsync/internal/index"
)

// Syncer is the single-document sync surface the hooks drive.
type Syncer interface {
	UpsertOne(ctx context.Context, entity content.EntityType, id int64) (index.Document, error)
	DeleteOne(ctx context.Context, entity content.EntityType, id int64, locale string) error
}

// PublishListener is notified after a publish event was indexed.
type PublishListener interface {
	ContentPublished(doc index.Document)
}

// Hooks resolves lifecycle events to index writes. Create, update and
// publish become upserts; delete and unpublish become deletes by id.
// Every failure is swallowed here: a broken index must never block the
// editorial write that triggered the event, or other models' hooks.
type Hooks struct {
	syncer   Syncer
	listener PublishListener // optional
	logger   *slog.Logger
}

func NewHooks(syncer Syncer, listener PublishListener, logger *slog.Logger) *Hooks {
	return &Hooks{
		syncer:   syncer,
		listener: listener,
		logger:   logger,
	}
}

func (h *Hooks) Handle(ctx context.Context, evt ContentEvent) error {
	entity, err := content.ParseEntity(evt.Model)
	if err != nil {
		h.logger.Warn("Ignoring event for untracked model", "model", evt.Model)
		return nil
	}

	switch evt.Action {
	case ActionCreated, ActionUpdated, ActionPublished:
		doc, err := h.syncer.UpsertOne(ctx, entity, evt.ID)
		if err != nil {
			h.logger.Error("Hook upsert failed, skipping event",
				"model", evt.Model, "id", evt.ID, "action", evt.Action, "error", err)
			return nil
		}
		if evt.Action == ActionPublished && h.listener != nil && doc.ID != "" {
			h.listener.ContentPublished(doc)
		}

	case ActionDeleted, ActionUnpublished:
		if err := h.syncer.DeleteOne(ctx, entity, evt.ID, evt.Locale); err != nil {
			h.logger.Error("Hook delete failed, skipping event",
				"model", evt.Model, "id", evt.ID, "action", evt.Action, "error", err)
		}

	default:
		h.logger.Warn("Ignoring event with unknown action",
			"model", evt.Model, "action", evt.Action)
	}

	return nil
}
