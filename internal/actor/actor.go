// Package actor is a tiny mailbox loop for state machines whose transitions
// are pure functions.
//
// One goroutine owns the state. Callers and asynchronous sources (timers,
// frame hosts, sockets) only ever post inputs to the mailbox; the reducer
// computes the next state plus a list of effects, and a Runtime carries the
// effects out and posts follow-up inputs back.
package actor

import (
	"context"
	"errors"
	"sync"
)

// Input is anything that can be posted to an actor mailbox: commands from
// callers as well as observations reported by a Runtime.
type Input interface {
	isActorInput()
}

// Effect describes work the reducer wants done. Effects are plain values;
// only a Runtime executes them.
type Effect interface {
	isActorEffect()
}

// ReducerFunc computes the next state for one input.
//
// A reducer must be deterministic: no I/O, no goroutines, no clock reads.
// Timestamps travel inside inputs.
type ReducerFunc[S any] func(state S, input Input) (next S, effects []Effect)

// Runtime executes effects on behalf of an actor.
type Runtime interface {
	// HandleEffects runs on the actor goroutine and must not block. Results
	// of asynchronous work are reported through emit. Nothing may be emitted
	// after ctx is done.
	HandleEffects(ctx context.Context, effects []Effect, emit func(Input))

	// Stop releases everything the runtime still holds. Safe to call more
	// than once.
	Stop()
}

// Hooks observe the loop. All hooks except OnBackpressure run on the actor
// goroutine.
type Hooks[S any] struct {
	// OnInput runs for every dequeued input before it is reduced.
	OnInput func(input Input)
	// OnTransition runs after the new state is stored.
	OnTransition func(prev S, next S, input Input)
	// OnEffects runs before effects are handed to the runtime.
	OnEffects func(effects []Effect)
	// OnPanic receives a recovered panic. Without it the panic is re-raised.
	// The actor is already cancelled when it runs.
	OnPanic func(recovered any)
	// OnBackpressure runs on the emitting goroutine when runtime feedback
	// finds the mailbox full. The input is still delivered once there is
	// room.
	OnBackpressure func(input Input)
}

// ErrStopped is returned when an input is posted to a stopped actor.
var ErrStopped = errors.New("actor stopped")

// ErrMailboxFull is returned when the mailbox cannot take another input.
var ErrMailboxFull = errors.New("actor mailbox full")

const defaultMailboxSize = 256

// Actor owns a value of type S and mutates it only from its loop goroutine.
type Actor[S any] struct {
	reduce  ReducerFunc[S]
	runtime Runtime
	hooks   Hooks[S]

	mu    sync.Mutex
	state S

	inbox  chan Input
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// Option configures an Actor.
type Option[S any] func(*Actor[S])

// WithHooks installs observability hooks.
func WithHooks[S any](hooks Hooks[S]) Option[S] {
	return func(a *Actor[S]) { a.hooks = hooks }
}

// WithMailboxSize overrides the mailbox capacity. Non-positive values are
// ignored.
func WithMailboxSize[S any](n int) Option[S] {
	return func(a *Actor[S]) {
		if n > 0 {
			a.inbox = make(chan Input, n)
		}
	}
}

// New builds an actor. The loop does not run until Start.
func New[S any](initial S, reducer ReducerFunc[S], runtime Runtime, opts ...Option[S]) *Actor[S] {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor[S]{
		reduce:  reducer,
		runtime: runtime,
		state:   initial,
		inbox:   make(chan Input, defaultMailboxSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start runs the loop on a new goroutine. Later calls do nothing.
func (a *Actor[S]) Start() {
	a.startOnce.Do(func() { go a.loop() })
}

// Stop cancels the loop and stops the runtime. Inputs still queued are
// discarded.
func (a *Actor[S]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		if a.runtime != nil {
			a.runtime.Stop()
		}
	})
}

// Done is closed once the loop goroutine has returned.
func (a *Actor[S]) Done() <-chan struct{} { return a.done }

// Send posts input without blocking.
func (a *Actor[S]) Send(input Input) error {
	if input == nil {
		return nil
	}
	if a.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case a.inbox <- input:
		return nil
	default:
		return ErrMailboxFull
	}
}

// Enqueue is Send for callers that only care whether the input was queued.
func (a *Actor[S]) Enqueue(input Input) bool {
	return input != nil && a.Send(input) == nil
}

// State returns a copy of the most recently stored state.
func (a *Actor[S]) State() S {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Actor[S]) loop() {
	defer close(a.done)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		a.cancel()
		if a.hooks.OnPanic == nil {
			panic(r)
		}
		a.hooks.OnPanic(r)
	}()

	for {
		select {
		case <-a.ctx.Done():
			return
		case in := <-a.inbox:
			a.step(in, a.emit)
		}
	}
}

// emit is the feedback path handed to the runtime. Unlike Send it never
// drops an input because the mailbox is full: the input waits on its own
// goroutine until there is room or the actor stops.
func (a *Actor[S]) emit(in Input) {
	err := a.Send(in)
	if err == nil || errors.Is(err, ErrStopped) {
		return
	}
	if a.hooks.OnBackpressure != nil {
		a.hooks.OnBackpressure(in)
	}
	go func() {
		select {
		case a.inbox <- in:
		case <-a.ctx.Done():
		}
	}()
}

func (a *Actor[S]) step(in Input, emit func(Input)) {
	if in == nil {
		return
	}
	if a.hooks.OnInput != nil {
		a.hooks.OnInput(in)
	}

	prev := a.State()
	next, effects := a.reduce(prev, in)

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	if a.hooks.OnTransition != nil {
		a.hooks.OnTransition(prev, next, in)
	}
	if len(effects) == 0 {
		return
	}
	if a.hooks.OnEffects != nil {
		a.hooks.OnEffects(effects)
	}
	if a.runtime != nil {
		a.runtime.HandleEffects(a.ctx, effects, emit)
	}
}
