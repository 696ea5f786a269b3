package viewer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
	"github.com/marcellin56/Central-de-ferramentas/internal/logger"
	"github.com/sirupsen/logrus"
)

// DefaultLoadTimeout is how long a frame may stay in loading before the
// session is marked errored.
const DefaultLoadTimeout = 1500 * time.Millisecond

const (
	subscriberBuffer = 16
	stopGrace        = time.Second
	replyGrace       = time.Second
)

// Controller runs one embedding session state machine. All methods return
// without waiting for the loop, except Reload and Stop.
type Controller struct {
	actor   *actor.Actor[State]
	runtime *Runtime
	clock   actor.Clock
	log     *logrus.Entry

	mu      sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
	closed  bool
}

type options struct {
	clock       actor.Clock
	loadTimeout time.Duration
	policy      SandboxPolicy
	log         *logrus.Entry
}

// Option configures a Controller.
type Option func(*options)

// WithClock replaces the wall clock, for tests.
func WithClock(c actor.Clock) Option { return func(o *options) { o.clock = c } }

// WithLoadTimeout sets how long a load may take. Non-positive values keep
// DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

// WithSandboxPolicy overrides DefaultSandbox.
func WithSandboxPolicy(p SandboxPolicy) Option { return func(o *options) { o.policy = p } }

// WithLogger sets the entry used for controller logs.
func WithLogger(l *logrus.Entry) Option { return func(o *options) { o.log = l } }

// NewController starts a controller whose surfaces are mounted on host.
func NewController(host FrameHost, opts ...Option) *Controller {
	o := options{
		clock:       actor.RealClock{},
		loadTimeout: DefaultLoadTimeout,
		policy:      DefaultSandbox,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("viewer")
	}

	c := &Controller{
		clock: o.clock,
		log:   o.log,
		subs:  make(map[int]chan Snapshot),
	}
	c.runtime = NewRuntime(host, o.clock, o.policy, o.log)

	initial := State{Phase: PhaseIdle, LoadTimeoutMs: o.loadTimeout.Milliseconds()}
	c.actor = actor.New[State](initial, Reduce, c.runtime, actor.WithHooks(actor.Hooks[State]{
		OnTransition: c.onTransition,
		OnPanic: func(r any) {
			c.log.Errorf("viewer loop panicked: %v", r)
			c.actor.Stop()
		},
		OnBackpressure: func(in actor.Input) {
			c.log.WithField("input", fmt.Sprintf("%T", in)).Warn("viewer mailbox full, delaying input")
		},
	}))
	c.actor.Start()
	return c
}

// Open starts loading tool, replacing any live session. Coming-soon tools
// are refused here, before anything is queued.
func (c *Controller) Open(tool catalog.Tool) error {
	if !catalog.Openable(tool) {
		c.log.WithField("tool", tool.ID).Info("refusing to open coming-soon tool")
		return fmt.Errorf("%w: %s", ErrRefusedTarget, tool.ID)
	}
	return c.send(Open(tool, c.nowMs(), nil))
}

// Reload reloads the current tool. Only valid while ready or errored, as
// decided by the loop after every input queued before it.
func (c *Controller) Reload() error {
	switch phase := c.actor.State().Phase; phase {
	case PhaseReady, PhaseErrored:
	default:
		return fmt.Errorf("%w: reload while %s", ErrInvalidTransition, phase)
	}
	reply := make(chan error, 1)
	if err := c.send(Reload(c.nowMs(), reply)); err != nil {
		return err
	}
	return c.await(reply)
}

// Close discards the current session. Closing an idle or stopped
// controller is not an error.
func (c *Controller) Close() error {
	err := c.send(Close(c.nowMs(), nil))
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}

// FrameLoaded forwards a load signal for gen.
func (c *Controller) FrameLoaded(gen int64) {
	if err := c.send(FrameLoaded(gen, c.nowMs())); err != nil {
		c.log.WithError(err).Debug("dropping load signal")
	}
}

// FrameErrored forwards an error signal for gen.
func (c *Controller) FrameErrored(gen int64) {
	if err := c.send(FrameErrored(gen, c.nowMs())); err != nil {
		c.log.WithError(err).Debug("dropping error signal")
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	return c.actor.State().Snapshot()
}

// LiveHandle reports the id of the mounted surface, if any.
func (c *Controller) LiveHandle() (string, bool) {
	return c.runtime.Live()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// Slow readers lose intermediate snapshots, never the latest. The returned
// func unsubscribes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.Snapshot()
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Stop closes the session, waits briefly for the close to be applied, then
// stops the loop. Used when the caller navigates away.
func (c *Controller) Stop() {
	reply := make(chan error, 1)
	if c.actor.Enqueue(Close(c.nowMs(), reply)) {
		select {
		case <-reply:
		case <-c.actor.Done():
		case <-time.After(stopGrace):
			c.log.Warn("close did not complete before stop")
		}
	}
	c.actor.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) send(in actor.Input) error {
	switch err := c.actor.Send(in); {
	case err == nil:
		return nil
	case errors.Is(err, actor.ErrStopped):
		return ErrStopped
	default:
		return fmt.Errorf("viewer: %w", err)
	}
}

func (c *Controller) await(reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-c.actor.Done():
		select {
		case err := <-reply:
			return err
		default:
			return ErrStopped
		}
	case <-time.After(replyGrace):
		return fmt.Errorf("viewer: no reply within %s", replyGrace)
	}
}

func (c *Controller) nowMs() int64 { return c.clock.Now().UnixMilli() }

func (c *Controller) onTransition(prev, next State, in actor.Input) {
	if next.StaleSignals != prev.StaleSignals {
		c.log.WithFields(logrus.Fields{
			"current": next.Generation,
			"input":   fmt.Sprintf("%T", in),
		}).Debug("dropped stale frame signal")
	}
	if prev.Phase != next.Phase || prev.Generation != next.Generation {
		c.log.WithFields(logrus.Fields{
			"from": prev.Phase,
			"to":   next.Phase,
			"gen":  next.Generation,
		}).Debug("viewer transition")
	}

	if _, isClose := in.(cmdClose); isClose && prev.Phase != PhaseIdle {
		closed := prev.Snapshot()
		closed.Phase = PhaseClosed
		closed.Reason = ReasonNone
		closed.UpdatedAt = next.UpdatedAtMs
		c.publish(closed)
	}
	if prev != next {
		c.publish(next.Snapshot())
	}
}

func (c *Controller) publish(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		// Full: drop the oldest so the newest always gets through.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
