package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uint) *Client {
	return &Client{Hub: hub, UserID: userID, Send: make(chan []byte, 4)}
}

func TestHub_NotifyUserReachesAllSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	phone := newTestClient(hub, 7)
	laptop := newTestClient(hub, 7)
	other := newTestClient(hub, 8)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)

	require.Eventually(t, func() bool { return hub.IsUserOnline(7) && hub.IsUserOnline(8) }, time.Second, 5*time.Millisecond)

	hub.NotifyUser(7, Notification{Type: "order.placed", Data: map[string]uint{"order_id": 1}})

	for _, c := range []*Client{phone, laptop} {
		select {
		case raw := <-c.Send:
			var n Notification
			require.NoError(t, json.Unmarshal(raw, &n))
			assert.Equal(t, "order.placed", n.Type)
			assert.False(t, n.CreatedAt.IsZero())
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("other user must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub, 3)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return !hub.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)
}
