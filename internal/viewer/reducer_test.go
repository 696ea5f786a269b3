package viewer

import (
	"errors"
	"testing"

	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

var (
	toolA = catalog.Tool{ID: "1", Name: "A", URL: "https://a.example", Type: catalog.TypeIframe, Status: catalog.StatusActive}
	toolB = catalog.Tool{ID: "2", Name: "B", URL: "https://b.example", Type: catalog.TypeIframe, Status: catalog.StatusBeta}
	soon  = catalog.Tool{ID: "coming-soon", Name: "Em breve", URL: "#", Type: catalog.TypeRedirect, Status: catalog.StatusComingSoon}
)

func idle() State {
	return State{Phase: PhaseIdle, LoadTimeoutMs: 1500}
}

func countEffects[T actor.Effect](effects []actor.Effect) int {
	n := 0
	for _, eff := range effects {
		if _, ok := eff.(T); ok {
			n++
		}
	}
	return n
}

func TestReduceOpen_FromIdle(t *testing.T) {
	t.Parallel()

	next, effects := Reduce(idle(), Open(toolA, 100, nil))
	if next.Phase != PhaseLoading || next.Generation != 1 {
		t.Fatalf("phase=%v gen=%d, want loading/1", next.Phase, next.Generation)
	}
	if next.OpenedAtMs != 100 || next.Target.ID != "1" {
		t.Fatalf("openedAt=%d target=%q", next.OpenedAtMs, next.Target.ID)
	}
	if !next.Mounted || !next.TimerArmed {
		t.Fatalf("mounted=%v timer=%v, want both", next.Mounted, next.TimerArmed)
	}
	if len(effects) != 2 {
		t.Fatalf("effects=%+v, want mount + arm", effects)
	}
	mount, ok := effects[0].(effMount)
	if !ok || mount.Gen != 1 {
		t.Fatalf("effects[0]=%+v, want effMount gen 1", effects[0])
	}
	arm, ok := effects[1].(effArmTimeout)
	if !ok || arm.Gen != 1 || arm.AfterMs != 1500 {
		t.Fatalf("effects[1]=%+v, want effArmTimeout gen 1 after 1500", effects[1])
	}
}

func TestReduceOpen_RefusesComingSoon(t *testing.T) {
	t.Parallel()

	reply := make(chan error, 1)
	start := idle()
	next, effects := Reduce(start, Open(soon, 1, reply))
	if next != start {
		t.Fatalf("state changed: %+v", next)
	}
	if countEffects[effMount](effects) != 0 {
		t.Fatalf("refused open must not mount: %+v", effects)
	}
	if len(effects) != 1 {
		t.Fatalf("effects=%+v, want only the reply", effects)
	}

	// Run the reply effect the way the runtime would.
	rt := NewRuntime(nil, nil, nil, nil)
	rt.HandleEffects(t.Context(), effects, func(actor.Input) {})
	if err := <-reply; !errors.Is(err, ErrRefusedTarget) {
		t.Fatalf("reply=%v, want ErrRefusedTarget", err)
	}
}

func TestReduceOpen_RefusalKeepsLiveSession(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, FrameLoaded(1, 2))

	next, effects := Reduce(state, Open(soon, 3, nil))
	if next != state || len(effects) != 0 {
		t.Fatalf("refusal touched the live session: %+v %+v", next, effects)
	}
}

func TestReduceOpen_SupersedesWithOneUnmount(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, FrameLoaded(1, 2))

	next, effects := Reduce(state, Open(toolB, 3, nil))
	if next.Generation != 2 || next.Phase != PhaseLoading || next.Target.ID != "2" {
		t.Fatalf("state=%+v", next)
	}
	if n := countEffects[effUnmount](effects); n != 1 {
		t.Fatalf("unmounts=%d, want 1", n)
	}
	if n := countEffects[effMount](effects); n != 1 {
		t.Fatalf("mounts=%d, want 1", n)
	}
	// Ready had no armed timer, so nothing to cancel.
	if n := countEffects[effCancelTimeout](effects); n != 0 {
		t.Fatalf("cancels=%d, want 0", n)
	}
	if _, ok := effects[0].(effUnmount); !ok {
		t.Fatalf("unmount must precede mount: %+v", effects)
	}
}

func TestReduceOpen_WhileLoadingCancelsTimer(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	next, effects := Reduce(state, Open(toolB, 2, nil))

	if next.Generation != 2 || next.Phase != PhaseLoading {
		t.Fatalf("state=%+v", next)
	}
	cancel, ok := effects[0].(effCancelTimeout)
	if !ok || cancel.Gen != 1 {
		t.Fatalf("effects[0]=%+v, want cancel of gen 1", effects[0])
	}
	if n := countEffects[effUnmount](effects); n != 1 {
		t.Fatalf("unmounts=%d, want 1", n)
	}
}

func TestReduce_GenerationIsMonotonic(t *testing.T) {
	t.Parallel()

	state := idle()
	var last int64
	steps := []actor.Input{
		Open(toolA, 1, nil),
		FrameLoaded(1, 2),
		Reload(3, nil),
		TimeoutElapsed(2, 4),
		Reload(5, nil),
		Open(toolB, 6, nil),
		Close(7, nil),
		Open(toolA, 8, nil),
		Open(toolA, 9, nil),
	}
	for i, in := range steps {
		next, _ := Reduce(state, in)
		switch in.(type) {
		case cmdOpen, cmdReload:
			if next.Generation <= last {
				t.Fatalf("step %d: gen=%d, want > %d", i, next.Generation, last)
			}
			last = next.Generation
		default:
			if next.Generation != state.Generation {
				t.Fatalf("step %d: gen changed by %T", i, in)
			}
		}
		state = next
	}
	if state.Generation != 6 {
		t.Fatalf("gen=%d, want 6", state.Generation)
	}
}

func TestReduce_StaleLoadAfterReloadIsIgnored(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, FrameLoaded(1, 2))
	state, _ = Reduce(state, Reload(3, nil))
	if state.Generation != 2 || state.Phase != PhaseLoading {
		t.Fatalf("state=%+v", state)
	}

	next, effects := Reduce(state, FrameLoaded(1, 4))
	if next.Phase != PhaseLoading {
		t.Fatalf("phase=%v, want loading", next.Phase)
	}
	if len(effects) != 0 || next.StaleSignals != 1 {
		t.Fatalf("effects=%+v stale=%d", effects, next.StaleSignals)
	}

	next, _ = Reduce(next, FrameErrored(1, 5))
	if next.Phase != PhaseLoading || next.StaleSignals != 2 {
		t.Fatalf("stale error changed state: %+v", next)
	}
}

func TestReduce_StaleTimeoutIsIgnored(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, Open(toolB, 2, nil))

	next, _ := Reduce(state, TimeoutElapsed(1, 3))
	if next.Phase != PhaseLoading {
		t.Fatalf("phase=%v, want loading", next.Phase)
	}
}

func TestReduce_TimeoutIsOneWay(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, TimeoutElapsed(1, 1501))
	if state.Phase != PhaseErrored || state.Reason != ReasonTimeout || state.TimerArmed {
		t.Fatalf("state=%+v", state)
	}

	// A late load for the same generation must not revive the session.
	next, effects := Reduce(state, FrameLoaded(1, 1600))
	if next.Phase != PhaseErrored || len(effects) != 0 {
		t.Fatalf("late load changed state: %+v %+v", next, effects)
	}

	// A second timeout for the same generation is also dropped.
	again, _ := Reduce(next, TimeoutElapsed(1, 1700))
	if again.Phase != PhaseErrored || again.UpdatedAtMs != state.UpdatedAtMs {
		t.Fatalf("second timeout changed state: %+v", again)
	}
}

func TestReduce_ExplicitErrorMatchesTimeoutPhase(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	next, effects := Reduce(state, FrameErrored(1, 2))
	if next.Phase != PhaseErrored || next.Reason != ReasonLoadFailed {
		t.Fatalf("state=%+v", next)
	}
	if n := countEffects[effCancelTimeout](effects); n != 1 {
		t.Fatalf("cancels=%d, want 1", n)
	}
}

func TestReduceReload_OnlyFromReadyOrErrored(t *testing.T) {
	t.Parallel()

	reply := make(chan error, 1)
	next, effects := Reduce(idle(), Reload(1, reply))
	if next.Phase != PhaseIdle || next.Generation != 0 {
		t.Fatalf("state=%+v", next)
	}
	if len(effects) != 1 {
		t.Fatalf("effects=%+v", effects)
	}
	if rep, ok := effects[0].(effCompleteReply); !ok || !errors.Is(rep.Err, ErrInvalidTransition) {
		t.Fatalf("effects[0]=%+v, want ErrInvalidTransition reply", effects[0])
	}

	loading, _ := Reduce(idle(), Open(toolA, 1, nil))
	next, _ = Reduce(loading, Reload(2, nil))
	if next != loading {
		t.Fatalf("reload while loading changed state")
	}
}

func TestReduceReload_FromErroredRetries(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 1, nil))
	state, _ = Reduce(state, FrameErrored(1, 2))

	next, effects := Reduce(state, Reload(10, nil))
	if next.Phase != PhaseLoading || next.Generation != 2 || next.Reason != ReasonNone {
		t.Fatalf("state=%+v", next)
	}
	if next.OpenedAtMs != 10 {
		t.Fatalf("openedAt=%d, want 10", next.OpenedAtMs)
	}
	reload, ok := effects[0].(effForceReload)
	if !ok || reload.Gen != 2 || reload.Target.ID != "1" {
		t.Fatalf("effects[0]=%+v, want force reload gen 2", effects[0])
	}
	if n := countEffects[effUnmount](effects); n != 0 {
		t.Fatalf("reload must keep the surface, got %d unmounts", n)
	}
}

func TestReduceClose_IsTotalAndIdempotent(t *testing.T) {
	t.Parallel()

	phases := map[string][]actor.Input{
		"idle":    nil,
		"loading": {Open(toolA, 1, nil)},
		"ready":   {Open(toolA, 1, nil), FrameLoaded(1, 2)},
		"errored": {Open(toolA, 1, nil), TimeoutElapsed(1, 2)},
	}
	for name, inputs := range phases {
		state := idle()
		for _, in := range inputs {
			state, _ = Reduce(state, in)
		}
		next, effects := Reduce(state, Close(50, nil))
		if next.Phase != PhaseIdle || next.Mounted || next.TimerArmed {
			t.Fatalf("%s: state after close=%+v", name, next)
		}
		if next.Generation != state.Generation {
			t.Fatalf("%s: close changed generation", name)
		}
		wantUnmounts := 0
		if state.Mounted {
			wantUnmounts = 1
		}
		if n := countEffects[effUnmount](effects); n != wantUnmounts {
			t.Fatalf("%s: unmounts=%d, want %d", name, n, wantUnmounts)
		}
		wantCancels := 0
		if state.TimerArmed {
			wantCancels = 1
		}
		if n := countEffects[effCancelTimeout](effects); n != wantCancels {
			t.Fatalf("%s: cancels=%d, want %d", name, n, wantCancels)
		}

		again, effects := Reduce(next, Close(60, nil))
		if again != next || len(effects) != 0 {
			t.Fatalf("%s: second close not a no-op: %+v %+v", name, again, effects)
		}
	}
}

func TestReduce_Scenario(t *testing.T) {
	t.Parallel()

	state, _ := Reduce(idle(), Open(toolA, 0, nil))
	if state.Phase != PhaseLoading || state.Generation != 1 {
		t.Fatalf("after open: %+v", state)
	}
	state, _ = Reduce(state, FrameLoaded(1, 10))
	if state.Phase != PhaseReady {
		t.Fatalf("after loaded: %+v", state)
	}
	state, _ = Reduce(state, Reload(20, nil))
	if state.Phase != PhaseLoading || state.Generation != 2 {
		t.Fatalf("after reload: %+v", state)
	}
	state, _ = Reduce(state, TimeoutElapsed(2, 1520))
	if state.Phase != PhaseErrored {
		t.Fatalf("after timeout: %+v", state)
	}
	state, _ = Reduce(state, Close(1600, nil))
	if state.Phase != PhaseIdle || state.Mounted {
		t.Fatalf("after close: %+v", state)
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	if s := idle().Snapshot(); s.Phase != PhaseIdle || s.Target != nil {
		t.Fatalf("idle snapshot=%+v", s)
	}
	state, _ := Reduce(idle(), Open(toolA, 5, nil))
	s := state.Snapshot()
	if s.Target == nil || s.Target.ID != "1" || s.OpenedAt != 5 || s.Generation != 1 {
		t.Fatalf("loading snapshot=%+v", s)
	}
}
