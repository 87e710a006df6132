package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pos-backoffice/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishQueuesEvent(t *testing.T) {
	h := NewHub()

	require.NoError(t, h.Publish(context.Background(), notify.Event{
		Type:   notify.TypeSale,
		Action: notify.ActionSaleCreated,
		Data:   map[string]interface{}{"sale_number": "S-1"},
	}))

	select {
	case raw := <-h.Broadcast:
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "sale_created", got["action"])
		assert.Equal(t, "S-1", got["data"].(map[string]interface{})["sale_number"])
	case <-time.After(time.Second):
		t.Fatal("event not queued")
	}
}

func TestPublishDropsWhenQueueStaysFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast); i++ {
		h.Broadcast <- []byte("x")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.Publish(ctx, notify.Event{Type: notify.TypeStock, Action: notify.ActionStockChange})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}

func TestPublishWaitsForRoom(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast); i++ {
		h.Broadcast <- []byte("x")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-h.Broadcast
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.Publish(ctx, notify.Event{Type: notify.TypeSale, Action: notify.ActionSaleCreated}))
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
	assert.Zero(t, h.ClientCount())
}
