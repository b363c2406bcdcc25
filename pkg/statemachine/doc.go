// Package statemachine evaluates guarded state transitions.
//
// A Table is built once from transition definitions and then fired against the
// current state of any entity:
//
//	type sub struct{ trialEndsAt time.Time; now time.Time }
//
//	table := statemachine.MustNew(
//	    statemachine.WithTransition[sub](Trialing, Active, BillingCycle,
//	        statemachine.WithGuards(func(ctx context.Context, _ statemachine.State, _ statemachine.Event, s sub) bool {
//	            return !s.trialEndsAt.After(s.now)
//	        }),
//	        statemachine.WithActions(invoiceAndNotify),
//	    ),
//	)
//
//	next, err := table.Fire(ctx, Trialing, BillingCycle, s)
//
// Guards veto a transition; when several transitions share a state and event the
// first one whose guards pass is taken. Actions run in order before the new
// state is returned, and the first failing action aborts the transition.
//
// Fire errors can be classified:
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* nothing defined */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* guards said no */ }
//	if errors.Is(err, statemachine.ErrActionFailed)   { /* side effect failed */ }
//
// Table is read-only after construction and safe for concurrent use.
package statemachine
