package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_PublishesAndDrainsOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer(w, 16, zap.NewNop())

	p.OrderCreated(context.Background(), model.Order{
		ID:          "o1",
		UserID:      "u1",
		TotalAmount: 28000,
		Items: []model.CartItem{
			{MenuItem: model.MenuItem{ID: "m1", Price: 8000}, Quantity: 2},
			{MenuItem: model.MenuItem{ID: "m2", Price: 12000}, Quantity: 1},
		},
		DeliveryTime: model.SlotLunch,
	})
	p.OrderStatusChanged(context.Background(), "o1", model.OrderStatusPending, model.OrderStatusPreparing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop")
	}
	p.Wait()

	require.Len(t, w.msgs, 2)
	assert.True(t, w.closed)

	assert.Equal(t, TopicOrderCreated, w.msgs[0].Topic)
	assert.Equal(t, "o1", string(w.msgs[0].Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, TopicOrderCreated, env.EventType)
	assert.Equal(t, "o1", env.CorrelationID)

	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, int64(28000), payload.TotalAmount)
	assert.Len(t, payload.Items, 2)

	assert.Equal(t, TopicOrderStatusChanged, w.msgs[1].Topic)
}

func TestProducer_DropsWhenBufferFull(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducer(w, 1, zap.NewNop())

	p.OrderStatusChanged(context.Background(), "o1", model.OrderStatusPending, model.OrderStatusPreparing)
	p.OrderStatusChanged(context.Background(), "o2", model.OrderStatusPending, model.OrderStatusPreparing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "o1", string(w.msgs[0].Key))
}
