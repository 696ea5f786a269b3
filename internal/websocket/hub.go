package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrUnmounted is returned when reloading a surface that was torn down.
var ErrUnmounted = errors.New("surface already unmounted")

// surface is the server-side record of one iframe a presenter shows.
type surface struct {
	id      string
	key     viewer.Key
	target  catalog.Tool
	sandbox string
	sig     viewer.Signals

	// Guarded by Hub.mu.
	gen       int64
	unmounted bool
}

func (s *surface) ID() string { return s.id }

// Hub tracks presenter connections and the current surface per caller
// context. A surface exists whether or not a presenter is connected; a
// presenter that connects later is told to mount it.
type Hub struct {
	log *logrus.Entry

	mu       sync.Mutex
	clients  map[viewer.Key]map[*client]struct{}
	surfaces map[viewer.Key]*surface
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{
		log:      logger.WithComponent("ws"),
		clients:  make(map[viewer.Key]map[*client]struct{}),
		surfaces: make(map[viewer.Key]*surface),
	}
}

// Host returns the FrameHost for one caller context. It is a
// viewer.HostFactory.
func (h *Hub) Host(key viewer.Key) viewer.FrameHost {
	return &frameHost{hub: h, key: key}
}

// Clients counts presenters connected for key.
func (h *Hub) Clients(key viewer.Key) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[key])
}

// Surface reports the handle id and generation of the surface mounted for
// key.
func (h *Hub) Surface(key viewer.Key) (string, int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[key]
	if !ok {
		return "", 0, false
	}
	return s.id, s.gen, true
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.key]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.key] = set
	}
	set[c] = struct{}{}

	if s, ok := h.surfaces[c.key]; ok {
		if data, err := json.Marshal(mountMessage(s)); err == nil {
			c.enqueue(data)
		}
	}
}

// remove forgets c and reports how many presenters remain for its key.
func (h *Hub) remove(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.key]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.key)
		return 0
	}
	return len(set)
}

// signal forwards a presenter's load outcome to the surface's sink. Reports
// for a surface that is no longer current are dropped here; reports for an
// old generation of the current surface are dropped by the controller.
func (h *Hub) signal(key viewer.Key, handleID string, gen int64, loaded bool) bool {
	h.mu.Lock()
	s, ok := h.surfaces[key]
	if ok && handleID != "" && s.id != handleID {
		ok = false
	}
	var sig viewer.Signals
	if ok {
		sig = s.sig
	}
	h.mu.Unlock()

	if !ok || sig == nil {
		h.log.WithFields(logrus.Fields{"context": key.String(), "handle": handleID}).
			Debug("dropping signal for unknown surface")
		return false
	}
	if loaded {
		sig.Loaded(gen)
	} else {
		sig.Errored(gen)
	}
	return true
}

func (h *Hub) broadcastLocked(key viewer.Key, msg Message) {
	set := h.clients[key]
	if len(set) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal message")
		return
	}
	for c := range set {
		c.enqueue(data)
	}
}

func mountMessage(s *surface) Message {
	return Message{
		Type:     TypeMount,
		HandleID: s.id,
		Gen:      s.gen,
		URL:      s.target.URL,
		Sandbox:  s.sandbox,
		Title:    s.target.Name,
	}
}

type frameHost struct {
	hub *Hub
	key viewer.Key
}

var _ viewer.FrameHost = (*frameHost)(nil)

func (f *frameHost) Mount(_ context.Context, target catalog.Tool, gen int64, policy viewer.SandboxPolicy, sig viewer.Signals) (viewer.Handle, error) {
	s := &surface{
		id:      uuid.NewString(),
		key:     f.key,
		target:  target,
		sandbox: policy.Attribute(),
		sig:     sig,
		gen:     gen,
	}

	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	if prev, ok := f.hub.surfaces[f.key]; ok && !prev.unmounted {
		// The controller unmounts before it mounts, so a leftover here
		// means a presenter never got the unmount. Replace it.
		prev.unmounted = true
		f.hub.broadcastLocked(f.key, Message{Type: TypeUnmount, HandleID: prev.id, Gen: prev.gen})
	}
	f.hub.surfaces[f.key] = s
	f.hub.broadcastLocked(f.key, mountMessage(s))
	return s, nil
}

func (f *frameHost) Unmount(h viewer.Handle) {
	s, ok := h.(*surface)
	if !ok {
		return
	}
	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	if s.unmounted {
		return
	}
	s.unmounted = true
	if cur, ok := f.hub.surfaces[s.key]; ok && cur == s {
		delete(f.hub.surfaces, s.key)
	}
	f.hub.broadcastLocked(s.key, Message{Type: TypeUnmount, HandleID: s.id, Gen: s.gen})
}

func (f *frameHost) ForceReload(h viewer.Handle, gen int64) error {
	s, ok := h.(*surface)
	if !ok {
		return ErrUnmounted
	}
	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	if s.unmounted {
		return ErrUnmounted
	}
	s.gen = gen
	f.hub.broadcastLocked(s.key, Message{Type: TypeReload, HandleID: s.id, Gen: gen})
	return nil
}

// client is one presenter connection. Writes go through send so the hub
// never blocks on a slow socket.
type client struct {
	key  viewer.Key
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(key viewer.Key, conn *websocket.Conn) *client {
	return &client{
		key:  key,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues data for the write pump. A presenter that falls this far
// behind is disconnected; it resynchronizes on reconnect.
func (c *client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.close()
	}
}

func (c *client) enqueueMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
