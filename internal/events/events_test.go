package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, string, string, Event) error { return f.err }

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	rec1, rec2 := &Recorder{}, &Recorder{}
	boom := errors.New("boom")

	m := Multi{rec1, nil, failing{err: boom}, rec2}
	err := m.Publish(context.Background(), TopicOrders, "k", New("order_created", map[string]any{"id": 1}))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"order_created"}, rec1.Types(TopicOrders))
	assert.Equal(t, []string{"order_created"}, rec2.Types(TopicOrders))
	assert.Empty(t, rec1.Types(TopicProducts))
}

func TestNewKafkaProducer_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducer(nil)
	require.Error(t, err)
}
