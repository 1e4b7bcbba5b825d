package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"searchsync/internal/index"
)

// Notifier emails the editorial list when content goes live. It is
// fire-and-forget: a mail failure is logged and dropped, never surfaced
// to the publish that triggered it.
type Notifier struct {
	mailer     Mailer
	recipients []string
	logger     *slog.Logger
}

func NewNotifier(mailer Mailer, recipients []string, logger *slog.Logger) *Notifier {
	return &Notifier{
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
	}
}

func (n *Notifier) ContentPublished(doc index.Document) {
	if len(n.recipients) == 0 {
		return
	}

	label := entityLabel(doc.Entity)
	subject := fmt.Sprintf("New %s published: %s", label, doc.Title)
	body := fmt.Sprintf(
		"<p>A new %s is live.</p><h2>%s</h2><p>%s</p><p>Slug: %s (locale %s)</p>",
		label, doc.Title, doc.ShortDescription, doc.Slug, doc.Locale,
	)

	if err := n.mailer.Send(n.recipients, subject, body); err != nil {
		n.logger.Error("Failed to send publish notification",
			"document_id", doc.ID, "error", err)
		return
	}
	n.logger.Info("Publish notification sent",
		"document_id", doc.ID, "recipients", len(n.recipients))
}

func entityLabel(entity string) string {
	return strings.ReplaceAll(entity, "-", " ")
}
