package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/marcellin56/Central-de-ferramentas/internal/api/middleware"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/viewer"
)

var testTool = catalog.Tool{
	ID:     "1",
	Name:   "Calculadora Cashback",
	URL:    "https://calc.example",
	Type:   catalog.TypeIframe,
	Status: catalog.StatusActive,
}

type recordingSignals struct {
	loaded  chan int64
	errored chan int64
}

func newRecordingSignals() *recordingSignals {
	return &recordingSignals{loaded: make(chan int64, 4), errored: make(chan int64, 4)}
}

func (r *recordingSignals) Loaded(gen int64)  { r.loaded <- gen }
func (r *recordingSignals) Errored(gen int64) { r.errored <- gen }

func TestHub_MountWithoutPresenter(t *testing.T) {
	hub := NewHub()
	key := viewer.Key{UserID: "u", Context: viewer.ContextOverlay}
	host := hub.Host(key)
	sig := newRecordingSignals()

	h, err := host.Mount(context.Background(), testTool, 1, viewer.DefaultSandbox, sig)
	require.NoError(t, err)
	require.NotEmpty(t, h.ID())

	id, gen, ok := hub.Surface(key)
	require.True(t, ok)
	require.Equal(t, h.ID(), id)
	require.Equal(t, int64(1), gen)

	require.NoError(t, host.ForceReload(h, 2))
	_, gen, _ = hub.Surface(key)
	require.Equal(t, int64(2), gen)

	// Signals for another surface are dropped, the current one is routed.
	require.False(t, hub.signal(key, "other", 2, true))
	require.True(t, hub.signal(key, h.ID(), 2, true))
	require.Equal(t, int64(2), <-sig.loaded)

	host.Unmount(h)
	host.Unmount(h)
	_, _, ok = hub.Surface(key)
	require.False(t, ok)
	require.ErrorIs(t, host.ForceReload(h, 3), ErrUnmounted)
	require.False(t, hub.signal(key, h.ID(), 3, false))
}

func TestHub_ContextsAreIsolated(t *testing.T) {
	hub := NewHub()
	a := viewer.Key{UserID: "u", Context: viewer.ContextOverlay}
	b := viewer.Key{UserID: "u", Context: viewer.ToolContext("1")}

	ha, err := hub.Host(a).Mount(context.Background(), testTool, 1, viewer.DefaultSandbox, newRecordingSignals())
	require.NoError(t, err)
	_, err = hub.Host(b).Mount(context.Background(), testTool, 1, viewer.DefaultSandbox, newRecordingSignals())
	require.NoError(t, err)

	hub.Host(a).Unmount(ha)
	_, _, ok := hub.Surface(a)
	require.False(t, ok)
	_, _, ok = hub.Surface(b)
	require.True(t, ok)
}

type wsFixture struct {
	server  *httptest.Server
	manager *viewer.Manager
	hub     *Hub
}

func newFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	manager := viewer.NewManager(hub.Host, viewer.WithLoadTimeout(time.Minute))
	handler := NewHandler(hub, manager, nil, nil)

	r := gin.New()
	r.GET("/v1/viewer/:ctx/ws", func(c *gin.Context) {
		middleware.SetUserID(c, "user-1")
		c.Next()
	}, handler.ServeWS)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		manager.StopAll()
	})
	return &wsFixture{server: srv, manager: manager, hub: hub}
}

func (f *wsFixture) dial(t *testing.T, ctx string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/viewer/" + ctx + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(typ string) func(Message) bool {
	return func(m Message) bool { return m.Type == typ }
}

func phase(p viewer.Phase) func(Message) bool {
	return func(m Message) bool {
		return m.Type == TypeSnapshot && m.Snapshot != nil && m.Snapshot.Phase == p
	}
}

func TestServeWS_LoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, viewer.ContextOverlay)

	first := readUntil(t, conn, ofType(TypeSnapshot))
	require.Equal(t, viewer.PhaseIdle, first.Snapshot.Phase)
	require.Equal(t, viewer.ViewNone, first.View.Kind)

	ctrl, ok := f.manager.Lookup(viewer.Key{UserID: "user-1", Context: viewer.ContextOverlay})
	require.True(t, ok)
	require.NoError(t, ctrl.Open(testTool))

	mount := readUntil(t, conn, ofType(TypeMount))
	require.Equal(t, int64(1), mount.Gen)
	require.Equal(t, testTool.URL, mount.URL)
	require.Equal(t, viewer.DefaultSandbox.Attribute(), mount.Sandbox)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeLoaded, HandleID: mount.HandleID, Gen: mount.Gen}))
	ready := readUntil(t, conn, phase(viewer.PhaseReady))
	require.Equal(t, viewer.ViewContent, ready.View.Kind)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeReload}))
	reload := readUntil(t, conn, ofType(TypeReload))
	require.Equal(t, mount.HandleID, reload.HandleID)
	require.Equal(t, int64(2), reload.Gen)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeErrored, HandleID: mount.HandleID, Gen: 2}))
	errored := readUntil(t, conn, phase(viewer.PhaseErrored))
	require.Equal(t, viewer.ViewError, errored.View.Kind)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeClose}))
	unmount := readUntil(t, conn, ofType(TypeUnmount))
	require.Equal(t, mount.HandleID, unmount.HandleID)
	readUntil(t, conn, phase(viewer.PhaseClosed))
	readUntil(t, conn, phase(viewer.PhaseIdle))
}

func TestServeWS_ReloadWhileIdleIsRejected(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, viewer.ContextOverlay)
	readUntil(t, conn, ofType(TypeSnapshot))

	require.NoError(t, conn.WriteJSON(Message{Type: TypeReload}))
	msg := readUntil(t, conn, ofType(TypeError))
	require.Contains(t, msg.Error, "invalid viewer transition")
}

func TestServeWS_ReplaysMountOnConnect(t *testing.T) {
	f := newFixture(t)
	key := viewer.Key{UserID: "user-1", Context: viewer.ToolContext("1")}
	ctrl, err := f.manager.Get(key)
	require.NoError(t, err)
	require.NoError(t, ctrl.Open(testTool))
	require.Eventually(t, func() bool {
		_, _, ok := f.hub.Surface(key)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	conn := f.dial(t, viewer.ToolContext("1"))
	mount := readUntil(t, conn, ofType(TypeMount))
	require.Equal(t, testTool.URL, mount.URL)
}

func TestServeWS_LastDisconnectReleases(t *testing.T) {
	f := newFixture(t)
	key := viewer.Key{UserID: "user-1", Context: viewer.ContextOverlay}

	a := f.dial(t, viewer.ContextOverlay)
	b := f.dial(t, viewer.ContextOverlay)
	readUntil(t, a, ofType(TypeSnapshot))
	readUntil(t, b, ofType(TypeSnapshot))
	require.Equal(t, 2, f.hub.Clients(key))

	ctrl, ok := f.manager.Lookup(key)
	require.True(t, ok)
	require.NoError(t, ctrl.Open(testTool))
	readUntil(t, a, ofType(TypeMount))

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return f.hub.Clients(key) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 1, f.manager.Len())

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return f.manager.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	// Releasing the controller unmounted its surface.
	require.Eventually(t, func() bool {
		_, _, mounted := f.hub.Surface(key)
		return !mounted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServeWS_UnknownContext(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/viewer/sidebar/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 404, resp.StatusCode)
}
