package events

import (
	"context"
	"sync"
)

type Recorded struct {
	Topic string
	Key   string
	Event Event
}

// Recorder keeps published events in memory. Tests use it in place of Kafka.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Publish(_ context.Context, topic, key string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Topic: topic, Key: key, Event: ev})
	return nil
}

func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the event types published to topic, in order.
func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Topic == topic {
			out = append(out, e.Event.Type)
		}
	}
	return out
}
