package viewer

// ViewKind is the one panel a presenter shows for a snapshot.
type ViewKind string

const (
	ViewNone    ViewKind = "none"
	ViewLoading ViewKind = "loading"
	ViewError   ViewKind = "error"
	ViewContent ViewKind = "content"
)

// Action ids a presenter can offer.
const (
	ActionRetry        = "retry"
	ActionOpenExternal = "open_external"
	ActionClose        = "close"
)

// Action is a button the presenter renders. OpenExternal actions carry what
// the page needs for window.open.
type Action struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Features string `json:"features,omitempty"`
}

// View is the presenter input derived from a Snapshot.
type View struct {
	Kind    ViewKind `json:"kind"`
	Title   string   `json:"title,omitempty"`
	Message string   `json:"message,omitempty"`
	URL     string   `json:"url,omitempty"`
	Sandbox string   `json:"sandbox,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

const (
	loadingMessage = "Establishing secure connection..."
	errorTitle     = "Connection Interrupted"
	errorMessage   = "The tool refused the connection or is taking too long to respond. " +
		"This often happens due to security policies (CSP) of the external tool."
)

// Render picks exactly one panel for s. The error panel always includes
// the open-externally escape hatch since the embedding itself is what most
// often fails.
func Render(s Snapshot, policy SandboxPolicy) View {
	if policy == nil {
		policy = DefaultSandbox
	}
	if s.Target == nil {
		return View{Kind: ViewNone}
	}
	t := s.Target
	external := Action{
		ID:       ActionOpenExternal,
		Label:    "Open in New Window",
		URL:      t.URL,
		Target:   "_blank",
		Features: "noopener,noreferrer",
	}
	closeAction := Action{ID: ActionClose, Label: "Close"}

	switch s.Phase {
	case PhaseLoading:
		return View{
			Kind:    ViewLoading,
			Title:   t.Name,
			Message: loadingMessage,
			Actions: []Action{external, closeAction},
		}
	case PhaseErrored:
		return View{
			Kind:    ViewError,
			Title:   errorTitle,
			Message: errorMessage,
			Actions: []Action{{ID: ActionRetry, Label: "Retry"}, external, closeAction},
		}
	case PhaseReady:
		return View{
			Kind:    ViewContent,
			Title:   t.Name,
			URL:     t.URL,
			Sandbox: policy.Attribute(),
			Actions: []Action{{ID: ActionRetry, Label: "Reload"}, external, closeAction},
		}
	default:
		return View{Kind: ViewNone}
	}
}
