package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
	"github.com/marcellin56/Central-de-ferramentas/pkg/types"
)

// Handler upgrades presenter connections for a caller context and bridges
// them to that context's controller.
type Handler struct {
	hub      *Hub
	manager  *viewer.Manager
	policy   viewer.SandboxPolicy
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewHandler returns a Handler. checkOrigin may be nil to accept every
// origin.
func NewHandler(hub *Hub, manager *viewer.Manager, policy viewer.SandboxPolicy, checkOrigin func(*http.Request) bool) *Handler {
	if policy == nil {
		policy = viewer.DefaultSandbox
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:     hub,
		manager: manager,
		policy:  policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: logger.WithComponent("ws"),
	}
}

// ServeWS handles GET /v1/viewer/:ctx/ws.
func (h *Handler) ServeWS(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
		return
	}
	key := viewer.Key{UserID: userID, Context: c.Param("ctx")}
	ctrl, err := h.manager.Get(key)
	if err != nil {
		if errors.Is(err, viewer.ErrUnknownContext) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: err.Error(), Code: "unknown_context"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	log := h.log.WithField("context", key.String())
	cl := newClient(key, conn)
	h.hub.add(cl)
	go cl.writePump()
	log.Info("presenter connected")

	snaps, unsubscribe := ctrl.Subscribe()
	go h.forward(cl, snaps)

	h.readLoop(cl, ctrl, log)

	unsubscribe()
	remaining := h.hub.remove(cl)
	cl.close()
	log.WithField("remaining", remaining).Info("presenter disconnected")

	// The caller navigated away: nobody is left to show the session.
	if remaining == 0 {
		h.manager.Release(key)
	}
}

// forward pushes every snapshot to the presenter until the subscription
// ends.
func (h *Handler) forward(cl *client, snaps <-chan viewer.Snapshot) {
	for s := range snaps {
		snap := s
		view := viewer.Render(snap, h.policy)
		cl.enqueueMessage(Message{Type: TypeSnapshot, Gen: snap.Generation, Snapshot: &snap, View: &view})
	}
	// The controller stopped; let the presenter reconnect to a fresh one.
	cl.close()
}

func (h *Handler) readLoop(cl *client, ctrl *viewer.Controller, log *logrus.Entry) {
	conn := cl.conn
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		h.handleMessage(cl, ctrl, &msg, log)
	}
}

func (h *Handler) handleMessage(cl *client, ctrl *viewer.Controller, msg *Message, log *logrus.Entry) {
	switch msg.Type {
	case TypeLoaded:
		h.hub.signal(cl.key, msg.HandleID, msg.Gen, true)
	case TypeErrored:
		h.hub.signal(cl.key, msg.HandleID, msg.Gen, false)
	case TypeReload:
		if err := ctrl.Reload(); err != nil {
			cl.enqueueMessage(Message{Type: TypeError, Error: err.Error()})
		}
	case TypeClose:
		if err := ctrl.Close(); err != nil {
			cl.enqueueMessage(Message{Type: TypeError, Error: err.Error()})
		}
	default:
		log.WithField("type", msg.Type).Debug("unknown presenter message")
	}
}
