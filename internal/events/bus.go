package events

import "context"

// Handler processes one raw message. Returning nil acknowledges the
// message; returning an error nacks it for redelivery.
type Handler func(ctx context.Context, payload []byte) error

type Subscription struct {
	Unsubscribe func() error
}

type Bus interface {
	Subscribe(subject string, group string, handler Handler) (Subscription, error)
	Close() error
}
