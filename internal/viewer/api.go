package viewer

import (
	"github.com/marcellin56/Central-de-ferramentas/internal/actor"
	"github.com/marcellin56/Central-de-ferramentas/internal/catalog"
)

// Open returns the input that opens target, superseding any live session.
func Open(target catalog.Tool, nowMs int64, reply chan error) actor.Input {
	return cmdOpen{Target: target, NowMs: nowMs, Reply: reply}
}

// Reload returns the input that reloads the current target.
func Reload(nowMs int64, reply chan error) actor.Input {
	return cmdReload{NowMs: nowMs, Reply: reply}
}

// Close returns the input that discards the current session.
func Close(nowMs int64, reply chan error) actor.Input {
	return cmdClose{NowMs: nowMs, Reply: reply}
}

// FrameLoaded reports a load signal from the frame host.
func FrameLoaded(gen, nowMs int64) actor.Input {
	return evFrameLoaded{Gen: gen, NowMs: nowMs}
}

// FrameErrored reports an error signal from the frame host.
func FrameErrored(gen, nowMs int64) actor.Input {
	return evFrameErrored{Gen: gen, NowMs: nowMs}
}

// TimeoutElapsed reports that the load timer for gen fired.
func TimeoutElapsed(gen, nowMs int64) actor.Input {
	return evTimeoutElapsed{Gen: gen, NowMs: nowMs}
}
