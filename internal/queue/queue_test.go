package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	body, _ := json.Marshal(map[string]string{"employee_id": "emp-1"})
	require.NoError(t, q.Publish(ctx, Message{Kind: KindCheckIn, Body: body}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, KindCheckIn, msg.Kind)
		assert.JSONEq(t, string(body), string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestInMemory_PublishRespectsCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.Publish(ctx, Message{Kind: KindCheckOut}))

	// Queue full; a cancelled publish must not block forever.
	cancel()
	err := q.Publish(ctx, Message{Kind: KindCheckOut})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemory_ConsumeStopsOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-messages:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consume channel not closed on cancel")
	}
}
