package events

import (
	"encoding/json"
	"time"

	"github.com/rocketshoes/cartservice/pkg/messaging"
)

// CartItem mirrors a cart entry on the wire.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Amount    int     `json:"amount"`
}

// CartUpdatedEvent carries the full cart after a committed mutation.
type CartUpdatedEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	Operation string            `json:"operation"`
	Items     []CartItem        `json:"items"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (e CartUpdatedEvent) Subject() string {
	return messaging.CartUpdatedSubject
}

func (e CartUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// CartNoticeEvent carries a user-visible failure notice.
type CartNoticeEvent struct {
	Operation string    `json:"operation"`
	ProductID int64     `json:"product_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (e CartNoticeEvent) Subject() string {
	return messaging.CartNoticeSubject
}

func (e CartNoticeEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
