// Package messaging defines the event publishing contract used by the cart service.
package messaging

import (
	"context"
)

const (
	CartUpdatedSubject = "cart.updated"
	CartNoticeSubject  = "cart.notices"
)

// StreamSubjects lists every subject the cart stream captures.
var StreamSubjects = []string{CartUpdatedSubject, CartNoticeSubject}

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
