package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair returns a server-side subscriber on topic and the client end.
func dialPair(t *testing.T, m *Manager, topic string) (*Subscriber, *websocket.Conn) {
	t.Helper()
	subs := make(chan *Subscriber, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s := m.Subscribe(topic, conn)
		go s.WritePump()
		subs <- s
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case s := <-subs:
		return s, client
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber not registered")
		return nil, nil
	}
}

func TestManager_PublishFansOutPerTopic(t *testing.T) {
	m := NewManager()
	_, a := dialPair(t, m, "Science")
	_, b := dialPair(t, m, "science")
	_, other := dialPair(t, m, "physics")

	assert.Equal(t, 2, m.Count("SCIENCE"))
	m.Publish("science", map[string]string{"type": "ping"})

	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"ping"}`, string(msg))
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other topics receive nothing")
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s, client := dialPair(t, m, "science")

	m.Unsubscribe(s)
	m.Unsubscribe(s)
	assert.Equal(t, 0, m.Count("science"))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)

	assert.NotPanics(t, func() { m.Publish("science", map[string]string{"type": "late"}) })
}

func TestManager_PublishUnencodable(t *testing.T) {
	m := NewManager()
	assert.NotPanics(t, func() { m.Publish("science", make(chan int)) })
}
