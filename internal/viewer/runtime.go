package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/sirupsen/logrus"
)

// Runtime carries out reducer effects against a FrameHost and a Clock.
// It never touches State; everything it learns goes back through emit.
type Runtime struct {
	host   FrameHost
	clock  actor.Clock
	policy SandboxPolicy
	log    *logrus.Entry

	mu       sync.Mutex
	handle   Handle
	timer    actor.Timer
	timerGen int64
	stopped  bool
}

// NewRuntime returns a Runtime that mounts surfaces on host.
func NewRuntime(host FrameHost, clock actor.Clock, policy SandboxPolicy, log *logrus.Entry) *Runtime {
	if clock == nil {
		clock = actor.RealClock{}
	}
	if policy == nil {
		policy = DefaultSandbox
	}
	if log == nil {
		log = logger.WithComponent("viewer")
	}
	return &Runtime{host: host, clock: clock, policy: policy, log: log}
}

// HandleEffects implements actor.Runtime.
func (r *Runtime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	for _, eff := range effects {
		if ctx.Err() != nil {
			return
		}
		switch e := eff.(type) {
		case effMount:
			r.mount(ctx, e, emit)
		case effUnmount:
			r.unmount(e.Gen)
		case effForceReload:
			r.forceReload(ctx, e, emit)
		case effArmTimeout:
			r.armTimeout(ctx, e, emit)
		case effCancelTimeout:
			r.cancelTimeout(e.Gen)
		case effCompleteReply:
			select {
			case e.Reply <- e.Err:
			default:
			}
		}
	}
}

// Stop releases the live surface and the pending timer.
func (r *Runtime) Stop() {
	r.mu.Lock()
	h := r.handle
	r.handle = nil
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.stopped = true
	r.mu.Unlock()

	if h != nil {
		r.host.Unmount(h)
	}
}

// Live reports the id of the mounted handle, if any.
func (r *Runtime) Live() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle == nil {
		return "", false
	}
	return r.handle.ID(), true
}

func (r *Runtime) mount(ctx context.Context, eff effMount, emit func(actor.Input)) {
	r.mu.Lock()
	prev := r.handle
	r.handle = nil
	r.mu.Unlock()
	// The reducer unmounts before it mounts, so this only catches a mount
	// that raced with Stop.
	if prev != nil {
		r.host.Unmount(prev)
	}

	h, err := r.host.Mount(ctx, eff.Target, eff.Gen, r.policy, r.signals(emit))
	if err != nil {
		r.log.WithError(err).WithField("gen", eff.Gen).Warn("mount failed")
		emit(FrameErrored(eff.Gen, r.nowMs()))
		return
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		r.host.Unmount(h)
		return
	}
	r.handle = h
	r.mu.Unlock()
}

func (r *Runtime) unmount(gen int64) {
	r.mu.Lock()
	h := r.handle
	r.handle = nil
	r.mu.Unlock()
	if h == nil {
		return
	}
	r.log.WithField("gen", gen).Debug("unmounting frame")
	r.host.Unmount(h)
}

func (r *Runtime) forceReload(ctx context.Context, eff effForceReload, emit func(actor.Input)) {
	r.mu.Lock()
	h := r.handle
	r.mu.Unlock()

	// A previous mount failed, so there is nothing to reload in place.
	if h == nil {
		r.mount(ctx, effMount{Gen: eff.Gen, Target: eff.Target}, emit)
		return
	}
	if err := r.host.ForceReload(h, eff.Gen); err != nil {
		r.log.WithError(err).WithField("gen", eff.Gen).Warn("reload failed")
		emit(FrameErrored(eff.Gen, r.nowMs()))
	}
}

func (r *Runtime) armTimeout(ctx context.Context, eff effArmTimeout, emit func(actor.Input)) {
	after := time.Duration(eff.AfterMs) * time.Millisecond
	gen := eff.Gen

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timerGen = gen
	r.timer = r.clock.AfterFunc(after, func() {
		if ctx.Err() != nil {
			return
		}
		emit(TimeoutElapsed(gen, r.nowMs()))
	})
}

func (r *Runtime) cancelTimeout(gen int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer == nil || r.timerGen != gen {
		return
	}
	r.timer.Stop()
	r.timer = nil
	r.timerGen = 0
}

func (r *Runtime) nowMs() int64 { return r.clock.Now().UnixMilli() }

func (r *Runtime) signals(emit func(actor.Input)) Signals {
	return signalSink{emit: emit, now: r.nowMs}
}

type signalSink struct {
	emit func(actor.Input)
	now  func() int64
}

func (s signalSink) Loaded(gen int64)  { s.emit(FrameLoaded(gen, s.now())) }
func (s signalSink) Errored(gen int64) { s.emit(FrameErrored(gen, s.now())) }
