package actor

// InputBase can be embedded in a struct to make it an Input.
type InputBase struct{}

func (InputBase) isActorInput() {}

// EffectBase can be embedded in a struct to make it an Effect.
type EffectBase struct{}

func (EffectBase) isActorEffect() {}

// Step feeds one input to reducer without a loop or runtime. Reducer tests
// use it to assert on state and effects directly.
func Step[S any](state S, input Input, reducer ReducerFunc[S]) (S, []Effect) {
	return reducer(state, input)
}
