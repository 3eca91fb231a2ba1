package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-server/apperr"
	"community-server/entities"
	"community-server/logging"
	"community-server/ws"
)

type subs map[string]*entities.Sub

func (s subs) GetSub(_ context.Context, name string) (*entities.Sub, error) {
	if sub, ok := s[strings.ToLower(name)]; ok {
		return sub, nil
	}
	return nil, apperr.ErrNotFound
}

func newEventsServer(t *testing.T, origins []string) (*httptest.Server, *ws.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mgr := ws.NewManager()
	h := NewWSHandler(mgr, subs{"science": {Name: "science"}}, origins, logging.Nop())

	r := gin.New()
	r.GET("/api/subs/:name/events", h.SubEvents)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mgr
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestSubEvents_ReceivesPublished(t *testing.T) {
	srv, mgr := newEventsServer(t, []string{"http://localhost:3000"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/subs/Science/events"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return mgr.Count("science") == 1 }, time.Second, 10*time.Millisecond)

	mgr.Publish("science", entities.SubEvent{Type: entities.EventAssetUpdated, Sub: "science", Kind: entities.AssetImage})
	mgr.Publish("physics", entities.SubEvent{Type: "other"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"sub.asset_updated"`)
	assert.Contains(t, string(msg), `"kind":"image"`)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return mgr.Count("science") == 0 }, time.Second, 10*time.Millisecond)
}

func TestSubEvents_UnknownSub(t *testing.T) {
	srv, _ := newEventsServer(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/subs/physics/events"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubEvents_RejectsForeignOrigin(t *testing.T) {
	srv, mgr := newEventsServer(t, []string{"http://localhost:3000"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/api/subs/science/events"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, mgr.Count("science"))
}
