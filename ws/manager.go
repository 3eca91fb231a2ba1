package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Subscriber is one websocket connection listening to a topic.
type Subscriber struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte
	once  sync.Once
}

// Manager keeps track of live connections per community topic.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]struct{}
}

func NewManager() *Manager {
	return &Manager{topics: make(map[string]map[*Subscriber]struct{})}
}

func topicKey(topic string) string { return strings.ToLower(topic) }

// Subscribe registers conn for topic. The caller runs WritePump and calls
// Unsubscribe when the read side ends.
func (m *Manager) Subscribe(topic string, conn *websocket.Conn) *Subscriber {
	s := &Subscriber{topic: topicKey(topic), conn: conn, send: make(chan []byte, sendBuffer)}
	m.mu.Lock()
	defer m.mu.Unlock()
	subs, ok := m.topics[s.topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		m.topics[s.topic] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its connection.
func (m *Manager) Unsubscribe(s *Subscriber) {
	m.mu.Lock()
	if subs, ok := m.topics[s.topic]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(m.topics, s.topic)
		}
	}
	m.mu.Unlock()
	s.close()
}

// Publish sends payload as JSON to every subscriber of topic. Slow
// subscribers whose buffer is full miss the message.
func (m *Manager) Publish(topic string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for s := range m.topics[topicKey(topic)] {
		select {
		case s.send <- b:
		default:
		}
	}
}

// Count returns the number of subscribers of topic.
func (m *Manager) Count(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topicKey(topic)])
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.send)
		_ = s.conn.Close()
	})
}

// WritePump delivers queued messages and keeps the connection alive with
// pings. It returns when the subscriber is closed or a write fails.
func (s *Subscriber) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains client frames until the connection closes. Clients do
// not send anything meaningful; reading is needed to process pongs and
// close frames.
func (s *Subscriber) ReadPump() error {
	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return err
		}
	}
}
