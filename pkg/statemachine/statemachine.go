package statemachine

import "context"

// State is a named state.
type State string

func (s State) String() string { return string(s) }

// Event is a named trigger.
type Event string

func (e Event) String() string { return string(e) }

// Guard decides whether a transition applies to data.
type Guard[D any] func(ctx context.Context, from State, event Event, data D) bool

// Action runs the side effects of a transition. An error aborts the transition.
type Action[D any] func(ctx context.Context, from, to State, event Event, data D) error

// Transition moves from one state to another when Event fires and every guard passes.
type Transition[D any] struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard[D]
	Actions []Action[D]
}

func (t Transition[D]) allowed(ctx context.Context, event Event, data D) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, t.From, event, data) {
			return false
		}
	}
	return true
}
