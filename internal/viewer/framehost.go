package viewer

import (
	"context"
	"strings"

	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

// SandboxPolicy is the allow-list applied to every embedded surface.
type SandboxPolicy []string

// DefaultSandbox lets embedded tools run scripts, submit forms, open popups
// and show dialogs. It deliberately omits allow-same-origin (no access to
// the dashboard's storage or cookies) and allow-top-navigation (the tool
// cannot navigate the dashboard away).
var DefaultSandbox = SandboxPolicy{
	"allow-scripts",
	"allow-forms",
	"allow-popups",
	"allow-popups-to-escape-sandbox",
	"allow-modals",
}

// Attribute renders the policy as an iframe sandbox attribute value.
func (p SandboxPolicy) Attribute() string { return strings.Join(p, " ") }

// Handle identifies one mounted surface.
type Handle interface {
	ID() string
}

// Signals is how a frame host reports the outcome of a load. Every call
// carries the generation the surface was mounted or reloaded under.
type Signals interface {
	Loaded(gen int64)
	Errored(gen int64)
}

// FrameHost owns the isolated surfaces tools are rendered in. Calls come
// from the controller loop and must return promptly; load outcomes arrive
// later through Signals. A FrameHost never reports timeouts.
type FrameHost interface {
	// Mount creates a surface for target and starts loading target.URL.
	Mount(ctx context.Context, target catalog.Tool, gen int64, policy SandboxPolicy, sig Signals) (Handle, error)
	// Unmount tears the surface down. Repeated calls are no-ops.
	Unmount(h Handle)
	// ForceReload reloads the same URL in place. Signals that follow carry gen.
	ForceReload(h Handle, gen int64) error
}
