package viewer

import (
	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

// Phase is the lifecycle phase of an embedding session.
type Phase string

const (
	// PhaseIdle means no session exists.
	PhaseIdle Phase = "idle"
	// PhaseLoading means a frame was requested and no outcome is known yet.
	PhaseLoading Phase = "loading"
	// PhaseReady means the frame reported a successful load.
	PhaseReady Phase = "ready"
	// PhaseErrored means the load failed or timed out. Not terminal.
	PhaseErrored Phase = "errored"
	// PhaseClosed is published once when a session is discarded, right
	// before the controller reports PhaseIdle again.
	PhaseClosed Phase = "closed"
)

// Reason explains PhaseErrored.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonTimeout: no load signal arrived within the load timeout. Frames
	// refused by the remote site's framing policy usually end up here, since
	// browsers do not report that refusal to the embedding page.
	ReasonTimeout Reason = "timeout"
	// ReasonLoadFailed: the frame host reported an explicit error.
	ReasonLoadFailed Reason = "load_failed"
)

// State is owned by the controller loop.
type State struct {
	Phase Phase
	// Target is the tool being shown. Zero while idle.
	Target catalog.Tool
	// Generation increments on every open and reload and is never reused,
	// not even after close. Frame host signals carry the generation they
	// were issued for.
	Generation int64
	// OpenedAtMs is when the current generation started loading.
	OpenedAtMs  int64
	UpdatedAtMs int64
	Reason      Reason

	// Mounted is true while the frame host holds a live handle.
	Mounted bool
	// TimerArmed is true while a load timeout is pending.
	TimerArmed bool

	// LoadTimeoutMs is copied into every timeout the reducer arms.
	LoadTimeoutMs int64

	// StaleSignals counts load/error/timeout signals that were dropped.
	StaleSignals int64
}

// Snapshot is the read-only view of State handed to presenters.
type Snapshot struct {
	Phase      Phase         `json:"phase"`
	Generation int64         `json:"generation"`
	Target     *catalog.Tool `json:"target,omitempty"`
	OpenedAt   int64         `json:"openedAt,omitempty"`
	UpdatedAt  int64         `json:"updatedAt,omitempty"`
	Reason     Reason        `json:"reason,omitempty"`
}

// Snapshot converts loop state into a presenter snapshot.
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:      s.Phase,
		Generation: s.Generation,
		UpdatedAt:  s.UpdatedAtMs,
		Reason:     s.Reason,
	}
	if snap.Phase == "" {
		snap.Phase = PhaseIdle
	}
	if s.Phase != PhaseIdle && s.Phase != "" {
		target := s.Target
		snap.Target = &target
		snap.OpenedAt = s.OpenedAtMs
	}
	return snap
}

// Inputs

type cmdOpen struct {
	actor.InputBase
	Target catalog.Tool
	NowMs  int64
	Reply  chan error
}

type cmdReload struct {
	actor.InputBase
	NowMs int64
	Reply chan error
}

type cmdClose struct {
	actor.InputBase
	NowMs int64
	Reply chan error
}

type evFrameLoaded struct {
	actor.InputBase
	Gen   int64
	NowMs int64
}

type evFrameErrored struct {
	actor.InputBase
	Gen   int64
	NowMs int64
}

type evTimeoutElapsed struct {
	actor.InputBase
	Gen   int64
	NowMs int64
}

// Effects

// effMount asks the frame host for a new surface showing Target.
type effMount struct {
	actor.EffectBase
	Gen    int64
	Target catalog.Tool
}

// effUnmount releases the live surface.
type effUnmount struct {
	actor.EffectBase
	Gen int64
}

// effForceReload reloads the live surface in place under a new generation.
type effForceReload struct {
	actor.EffectBase
	Gen    int64
	Target catalog.Tool
}

type effArmTimeout struct {
	actor.EffectBase
	Gen     int64
	AfterMs int64
}

type effCancelTimeout struct {
	actor.EffectBase
	Gen int64
}

type effCompleteReply struct {
	actor.EffectBase
	Reply chan error
	Err   error
}
