package viewer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
)

// ContextOverlay is the in-dashboard overlay. Dedicated viewer pages use
// ToolContext(id).
const ContextOverlay = "overlay"

const toolContextPrefix = "tool-"

// ToolContext names the caller context of the dedicated page for a tool.
func ToolContext(toolID string) string { return toolContextPrefix + toolID }

// ValidContext reports whether name is a caller context the manager serves.
func ValidContext(name string) bool {
	if name == ContextOverlay {
		return true
	}
	return strings.HasPrefix(name, toolContextPrefix) && len(name) > len(toolContextPrefix)
}

// Key identifies one caller context: a user and the surface they view
// tools in.
type Key struct {
	UserID  string
	Context string
}

func (k Key) String() string { return k.UserID + "/" + k.Context }

// HostFactory returns the frame host for a caller context.
type HostFactory func(Key) FrameHost

// Manager keeps at most one controller per caller context.
type Manager struct {
	newHost HostFactory
	opts    []Option

	mu          sync.Mutex
	controllers map[Key]*Controller
}

// NewManager returns a Manager that builds controllers with opts.
func NewManager(newHost HostFactory, opts ...Option) *Manager {
	return &Manager{
		newHost:     newHost,
		opts:        opts,
		controllers: make(map[Key]*Controller),
	}
}

// Get returns the controller for key, creating it on first use.
func (m *Manager) Get(key Key) (*Controller, error) {
	if !ValidContext(key.Context) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContext, key.Context)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[key]; ok {
		return c, nil
	}
	opts := append([]Option{WithLogger(logger.WithFields(logger.Fields{
		"component": "viewer",
		"context":   key.String(),
	}))}, m.opts...)
	c := NewController(m.newHost(key), opts...)
	m.controllers[key] = c
	return c, nil
}

// Lookup returns the controller for key without creating one.
func (m *Manager) Lookup(key Key) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[key]
	return c, ok
}

// Release stops and forgets the controller for key.
func (m *Manager) Release(key Key) {
	m.mu.Lock()
	c, ok := m.controllers[key]
	delete(m.controllers, key)
	m.mu.Unlock()
	if ok {
		c.Stop()
	}
}

// Len reports how many controllers are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}

// StopAll stops every controller.
func (m *Manager) StopAll() {
	m.mu.Lock()
	all := m.controllers
	m.controllers = make(map[Key]*Controller)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range all {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			c.Stop()
		}(c)
	}
	wg.Wait()
}
