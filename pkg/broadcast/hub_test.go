package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish("books", map[string]int{"id": 1001})

	for _, ch := range []chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "books", ev.Event)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	h := NewHub()
	h.Publish("books", "missed")

	late := h.Subscribe()
	select {
	case ev := <-late:
		t.Fatalf("late subscriber received %v", ev)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe()

	// Publish past the buffer; none of these may block.
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish("books", i)
	}

	// The buffer holds the first events, the overflow was dropped.
	assert.Len(t, slow, subscriberBuffer)
	first := <-slow
	assert.Equal(t, 0, first.Data)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	require.Equal(t, 1, h.Subscribers())

	h.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())

	// Double unsubscribe must not panic.
	h.Unsubscribe(ch)
}

func TestEventMarshal(t *testing.T) {
	ev := Event{Event: "stream-stopped", Data: map[string]string{"streamName": "books"}}
	raw, err := ev.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"stream-stopped","data":{"streamName":"books"}}`, string(raw))
}
