package events

import (
	"context"
	"errors"
	"time"
)

const (
	TopicUsers    = "user_events"
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
)

var Topics = []string{TopicUsers, TopicProducts, TopicOrders}

type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

func New(typ string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, topic, key string, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, topic, key, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
