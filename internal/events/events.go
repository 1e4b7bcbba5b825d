package events

import "os"

// Lifecycle actions the CMS emits for every tracked content type.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionPublished   = "published"
	ActionUnpublished = "unpublished"
)

// ContentEvent is the lifecycle payload published by the CMS
// integration layer. The payload deliberately carries identifiers only;
// handlers re-fetch the row with relations before normalizing.
type ContentEvent struct {
	Model  string `json:"model"`
	ID     int64  `json:"id"`
	Locale string `json:"locale"`
	Action string `json:"action"`
}

type EventConfig struct {
	// SubjectPrefix is the root of the per-model subjects, e.g.
	// "content" yields "content.report.*".
	SubjectPrefix string
}

func NewEventConfig() *EventConfig {
	prefix := os.Getenv("EVENT_SUBJECT_PREFIX")
	if prefix == "" {
		prefix = "content"
	}
	return &EventConfig{SubjectPrefix: prefix}
}

// Subject builds the wildcard subject for one content model.
func (c *EventConfig) Subject(model string) string {
	return c.SubjectPrefix + "." + model + ".*"
}
