// Package notice delivers user-visible failure messages produced by cart operations.
package notice

import (
	"context"
	"log/slog"
	"time"

	"github.com/rocketshoes/cartservice/pkg/messaging"
	"github.com/rocketshoes/cartservice/pkg/messaging/events"
)

// Human-readable notice texts shown to the shopper.
const (
	StockExceeded = "requested quantity exceeds stock"
	AddFailed     = "could not add product"
	RemoveFailed  = "could not remove product"
	UpdateFailed  = "could not change quantity"
)

// Notice is a single failure message for the UI.
type Notice struct {
	Operation string
	ProductID int64
	Message   string
}

// Notifier delivers notices. Delivery is fire-and-forget: implementations never block the caller on failure.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notice")}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notice) {
	l.logger.WarnContext(ctx, n.Message,
		slog.String("operation", n.Operation),
		slog.Int64("product_id", n.ProductID))
}

// PublisherNotifier publishes notices as CartNoticeEvent messages.
type PublisherNotifier struct {
	publisher messaging.Publisher
	logger    *slog.Logger
}

func NewPublisherNotifier(publisher messaging.Publisher, logger *slog.Logger) *PublisherNotifier {
	return &PublisherNotifier{publisher: publisher, logger: logger}
}

func (p *PublisherNotifier) Notify(ctx context.Context, n Notice) {
	event := events.CartNoticeEvent{
		Operation: n.Operation,
		ProductID: n.ProductID,
		Message:   n.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish cart notice", "error", err)
	}
}

// Multi fans a notice out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
