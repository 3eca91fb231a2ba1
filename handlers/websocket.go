package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"community-server/logging"
	"community-server/middleware"
	"community-server/ws"
)

// WSHandler streams community events to browsers.
type WSHandler struct {
	mgr      *ws.Manager
	subs     middleware.SubFinder
	upgrader websocket.Upgrader
	log      logging.Logger
}

// NewWSHandler accepts upgrades from allowedOrigins, or from any origin
// when the list contains "*". Requests without an Origin header are
// accepted.
func NewWSHandler(mgr *ws.Manager, subs middleware.SubFinder, allowedOrigins []string, log logging.Logger) *WSHandler {
	return &WSHandler{
		mgr:  mgr,
		subs: subs,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// SubEvents handles GET /api/subs/:name/events
func (h *WSHandler) SubEvents(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.subs.GetSub(ctx, c.Param("name"))
	if err != nil {
		middleware.AbortWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn(ctx, "websocket upgrade failed", "err", err)
		return
	}

	s := h.mgr.Subscribe(sub.Name, conn)
	h.log.Info(ctx, "subscriber connected", "sub", sub.Name)
	defer func() {
		h.mgr.Unsubscribe(s)
		h.log.Info(ctx, "subscriber disconnected", "sub", sub.Name)
	}()

	go s.WritePump()

	if err := s.ReadPump(); err != nil &&
		!websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		h.log.Warn(ctx, "websocket read failed", "sub", sub.Name, "err", err)
	}
}
