package statemachine

import (
	"context"
	"fmt"
)

// Table is an immutable set of transitions. It holds no current state: the
// caller passes the state of the entity being moved, so one Table serves any
// number of entities concurrently.
type Table[D any] struct {
	transitions map[State]map[Event][]Transition[D]
}

// Option configures a Table.
type Option[D any] func(*Table[D]) error

// TransitionOption configures a single transition.
type TransitionOption[D any] func(*Transition[D])

// New builds a transition table.
func New[D any](opts ...Option[D]) (*Table[D], error) {
	t := &Table[D]{transitions: make(map[State]map[Event][]Transition[D])}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New that panics on invalid definitions.
func MustNew[D any](opts ...Option[D]) *Table[D] {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return t
}

// WithTransition adds a transition. Several transitions may share the same
// from state and event; the first one whose guards pass wins.
func WithTransition[D any](from, to State, event Event, opts ...TransitionOption[D]) Option[D] {
	return func(t *Table[D]) error {
		if from == "" || to == "" || event == "" {
			return ErrInvalidTransition
		}
		tr := Transition[D]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&tr)
		}
		if t.transitions[from] == nil {
			t.transitions[from] = make(map[Event][]Transition[D])
		}
		t.transitions[from][event] = append(t.transitions[from][event], tr)
		return nil
	}
}

func WithGuards[D any](guards ...Guard[D]) TransitionOption[D] {
	return func(tr *Transition[D]) {
		for _, g := range guards {
			if g != nil {
				tr.Guards = append(tr.Guards, g)
			}
		}
	}
}

func WithActions[D any](actions ...Action[D]) TransitionOption[D] {
	return func(tr *Transition[D]) {
		for _, a := range actions {
			if a != nil {
				tr.Actions = append(tr.Actions, a)
			}
		}
	}
}

func (t *Table[D]) match(ctx context.Context, from State, event Event, data D) (*Transition[D], error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(from, event)
	}
	for i := range candidates {
		if candidates[i].allowed(ctx, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, NewErrTransitionRejected(from, event)
}

// Fire evaluates event against from and runs the matching transition's actions
// in order. It returns the target state, or from unchanged with an error when
// no transition applies or an action fails.
func (t *Table[D]) Fire(ctx context.Context, from State, event Event, data D) (State, error) {
	tr, err := t.match(ctx, from, event, data)
	if err != nil {
		return from, err
	}
	for _, action := range tr.Actions {
		if err := action(ctx, tr.From, tr.To, event, data); err != nil {
			return from, fmt.Errorf("%w: %w", ErrActionFailed, err)
		}
	}
	return tr.To, nil
}

// Target reports where event would move from, without running actions.
func (t *Table[D]) Target(ctx context.Context, from State, event Event, data D) (State, bool) {
	tr, err := t.match(ctx, from, event, data)
	if err != nil {
		return from, false
	}
	return tr.To, true
}
