package notice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketshoes/cartservice/pkg/messaging"
	"github.com/rocketshoes/cartservice/pkg/messaging/events"
)

type capturePublisher struct {
	published []messaging.Event
	err       error
}

func (c *capturePublisher) Publish(_ context.Context, e messaging.Event) error {
	c.published = append(c.published, e)
	return c.err
}

type countingNotifier struct{ calls int }

func (c *countingNotifier) Notify(context.Context, Notice) { c.calls++ }

func Test_LogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	n.Notify(context.Background(), Notice{Operation: "remove_product", ProductID: 9, Message: RemoveFailed})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, RemoveFailed, record["msg"])
	assert.Equal(t, "remove_product", record["operation"])
	assert.EqualValues(t, 9, record["product_id"])
}

func Test_PublisherNotifier(t *testing.T) {
	testCases := []struct {
		name       string
		publishErr error
	}{
		{name: "Success - published"},
		{name: "Failure - publish error is swallowed", publishErr: errors.New("no responders")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := &capturePublisher{err: tc.publishErr}
			n := NewPublisherNotifier(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))

			// when
			n.Notify(context.Background(), Notice{Operation: "add_product", ProductID: 5, Message: StockExceeded})

			// then
			require.Len(t, pub.published, 1)
			event, ok := pub.published[0].(events.CartNoticeEvent)
			require.True(t, ok)
			assert.Equal(t, messaging.CartNoticeSubject, event.Subject())
			assert.Equal(t, int64(5), event.ProductID)
			assert.Equal(t, StockExceeded, event.Message)
			assert.False(t, event.CreatedAt.IsZero())
		})
	}
}

func Test_Multi(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}

	Multi{a, b}.Notify(context.Background(), Notice{Message: AddFailed})

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
