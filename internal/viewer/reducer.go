package viewer

import (
	"fmt"

	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

// Reduce is the embedding session state machine.
//
//	idle ──open──▶ loading ──loaded──▶ ready
//	                  │ errored/timeout    │ reload
//	                  ▼                    ▼
//	               errored ──reload──▶ loading
//
// close is accepted from every phase and always ends in idle. open is
// accepted from every phase and supersedes whatever is live.
func Reduce(state State, input actor.Input) (State, []actor.Effect) {
	if state.Phase == "" {
		state.Phase = PhaseIdle
	}
	switch in := input.(type) {
	case cmdOpen:
		return reduceOpen(state, in)
	case cmdReload:
		return reduceReload(state, in)
	case cmdClose:
		return reduceClose(state, in)
	case evFrameLoaded:
		return reduceFrameLoaded(state, in)
	case evFrameErrored:
		return reduceFrameErrored(state, in)
	case evTimeoutElapsed:
		return reduceTimeout(state, in)
	default:
		return state, nil
	}
}

func reduceOpen(state State, cmd cmdOpen) (State, []actor.Effect) {
	if !catalog.Openable(cmd.Target) {
		err := fmt.Errorf("%w: %s is %s", ErrRefusedTarget, cmd.Target.ID, cmd.Target.Status)
		return state, replyEffects(cmd.Reply, err)
	}

	effects := releaseEffects(state)

	state.Generation++
	gen := state.Generation

	state.Target = cmd.Target
	state.Phase = PhaseLoading
	state.Reason = ReasonNone
	state.OpenedAtMs = cmd.NowMs
	state.UpdatedAtMs = cmd.NowMs
	state.Mounted = true
	state.TimerArmed = true

	effects = append(effects,
		effMount{Gen: gen, Target: cmd.Target},
		effArmTimeout{Gen: gen, AfterMs: state.LoadTimeoutMs},
	)
	effects = append(effects, replyEffects(cmd.Reply, nil)...)
	return state, effects
}

func reduceReload(state State, cmd cmdReload) (State, []actor.Effect) {
	if state.Phase != PhaseReady && state.Phase != PhaseErrored {
		err := fmt.Errorf("%w: reload while %s", ErrInvalidTransition, state.Phase)
		return state, replyEffects(cmd.Reply, err)
	}

	var effects []actor.Effect
	if state.TimerArmed {
		effects = append(effects, effCancelTimeout{Gen: state.Generation})
	}

	state.Generation++
	gen := state.Generation

	state.Phase = PhaseLoading
	state.Reason = ReasonNone
	state.OpenedAtMs = cmd.NowMs
	state.UpdatedAtMs = cmd.NowMs
	state.Mounted = true
	state.TimerArmed = true

	effects = append(effects,
		effForceReload{Gen: gen, Target: state.Target},
		effArmTimeout{Gen: gen, AfterMs: state.LoadTimeoutMs},
	)
	effects = append(effects, replyEffects(cmd.Reply, nil)...)
	return state, effects
}

func reduceClose(state State, cmd cmdClose) (State, []actor.Effect) {
	effects := releaseEffects(state)
	effects = append(effects, replyEffects(cmd.Reply, nil)...)

	updated := state.UpdatedAtMs
	if state.Phase != PhaseIdle {
		updated = cmd.NowMs
	}
	return State{
		Phase:         PhaseIdle,
		Generation:    state.Generation,
		UpdatedAtMs:   updated,
		LoadTimeoutMs: state.LoadTimeoutMs,
		StaleSignals:  state.StaleSignals,
	}, effects
}

func reduceFrameLoaded(state State, ev evFrameLoaded) (State, []actor.Effect) {
	if !state.accepts(ev.Gen) {
		state.StaleSignals++
		return state, nil
	}
	state.Phase = PhaseReady
	state.UpdatedAtMs = ev.NowMs
	state.TimerArmed = false
	return state, []actor.Effect{effCancelTimeout{Gen: ev.Gen}}
}

func reduceFrameErrored(state State, ev evFrameErrored) (State, []actor.Effect) {
	if !state.accepts(ev.Gen) {
		state.StaleSignals++
		return state, nil
	}
	state.Phase = PhaseErrored
	state.Reason = ReasonLoadFailed
	state.UpdatedAtMs = ev.NowMs
	state.TimerArmed = false
	return state, []actor.Effect{effCancelTimeout{Gen: ev.Gen}}
}

func reduceTimeout(state State, ev evTimeoutElapsed) (State, []actor.Effect) {
	if !state.accepts(ev.Gen) {
		state.StaleSignals++
		return state, nil
	}
	state.Phase = PhaseErrored
	state.Reason = ReasonTimeout
	state.UpdatedAtMs = ev.NowMs
	state.TimerArmed = false
	return state, nil
}

// accepts reports whether a signal for gen may move the session out of
// loading. Anything else is a leftover from a superseded frame or arrived
// after the outcome for this generation was already decided.
func (s State) accepts(gen int64) bool {
	return s.Phase == PhaseLoading && gen == s.Generation
}

// releaseEffects cancels the pending timeout and unmounts the live surface.
func releaseEffects(state State) []actor.Effect {
	var effects []actor.Effect
	if state.TimerArmed {
		effects = append(effects, effCancelTimeout{Gen: state.Generation})
	}
	if state.Mounted {
		effects = append(effects, effUnmount{Gen: state.Generation})
	}
	return effects
}

func replyEffects(reply chan error, err error) []actor.Effect {
	if reply == nil {
		return nil
	}
	return []actor.Effect{effCompleteReply{Reply: reply, Err: err}}
}
