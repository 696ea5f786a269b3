// Package actortest has doubles for testing code built on package actor.
package actortest

import (
	"context"
	"sync"

	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
)

// FakeRuntime records the effects it is given. When EmitFn is set it is
// called once per effect so a test can answer with follow-up inputs.
type FakeRuntime struct {
	mu      sync.Mutex
	effects []actor.Effect
	stopped int

	EmitFn func(ctx context.Context, eff actor.Effect, emit func(actor.Input))
}

// HandleEffects implements actor.Runtime.
func (r *FakeRuntime) HandleEffects(ctx context.Context, effects []actor.Effect, emit func(actor.Input)) {
	r.mu.Lock()
	r.effects = append(r.effects, effects...)
	fn := r.EmitFn
	r.mu.Unlock()

	if fn == nil {
		return
	}
	for _, eff := range effects {
		fn(ctx, eff, emit)
	}
}

// Stop implements actor.Runtime.
func (r *FakeRuntime) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
}

// Stopped reports how many times Stop was called.
func (r *FakeRuntime) Stopped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Effects returns a copy of everything recorded so far.
func (r *FakeRuntime) Effects() []actor.Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]actor.Effect(nil), r.effects...)
}

// Reset forgets recorded effects.
func (r *FakeRuntime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects = nil
}
