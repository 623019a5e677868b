// Package quote implements the event-sourced quote aggregate: the consistency
// boundary grouping one or more quotes and an optional policy under a single
// identity and lock scope.
package quote

import (
	"sort"

	"coverstack-backend/internal/errors"
)

// State is a quote's position in the product-configured workflow. States are
// string-typed rather than an enum because products legitimately configure
// different approval and referral paths.
type State string

const (
	StateNascent             State = "nascent"
	StateIncomplete          State = "incomplete"
	StateComplete            State = "complete"
	StateApproved            State = "approved"
	StateAutoApproved        State = "autoApproved"
	StateReviewReferred      State = "reviewReferred"
	StateReviewApproved      State = "reviewApproved"
	StateEndorsementReferred State = "endorsementReferred"
	StateEndorsementApproved State = "endorsementApproved"
	StateDeclined            State = "declined"
	StateBound               State = "bound"
	StateExpired             State = "expired"
	StateDiscarded           State = "discarded"
)

// IsTerminal reports whether no further workflow transition is possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateBound, StateDeclined, StateExpired, StateDiscarded:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// Action names a workflow-gated operation against a quote.
type Action string

const (
	ActionSubmit              Action = "submit"
	ActionAutoApprove         Action = "autoApprove"
	ActionReferForReview      Action = "referForReview"
	ActionApproveReview       Action = "approveReview"
	ActionReferForEndorsement Action = "referForEndorsement"
	ActionApproveEndorsement  Action = "approveEndorsement"
	ActionDecline             Action = "decline"
	ActionBind                Action = "bind"
	ActionExpire              Action = "expire"
	ActionDiscard             Action = "discard"
	ActionReturnToIncomplete  Action = "returnToIncomplete"
)

func (a Action) String() string { return string(a) }

// TransitionRule declares the state a permitted action lands the quote in.
type TransitionRule struct {
	ResultingState State
}

type transitionKey struct {
	action Action
	state  State
}

// Workflow is the data-driven transition table governing a quote's state
// machine: (action, current state) -> resulting state. Loaded from product
// configuration; one instance per product release, injected explicitly into
// every call site.
type Workflow struct {
	name        string
	transitions map[transitionKey]TransitionRule
}

// NewWorkflow builds a workflow from a transition table. The table maps each
// action to the set of states it is permitted from, with the resulting state.
func NewWorkflow(name string, table map[Action]map[State]TransitionRule) *Workflow {
	transitions := make(map[transitionKey]TransitionRule)
	for action, states := range table {
		for state, rule := range states {
			transitions[transitionKey{action: action, state: state}] = rule
		}
	}
	return &Workflow{name: name, transitions: transitions}
}

func (w *Workflow) Name() string { return w.name }

// IsActionPermitted reports whether the action may be performed from the
// given state.
func (w *Workflow) IsActionPermitted(action Action, current State) bool {
	_, ok := w.transitions[transitionKey{action: action, state: current}]
	return ok
}

// ResultingState returns the state the action transitions to from the given
// state. The second return is false when the action is not permitted.
func (w *Workflow) ResultingState(action Action, current State) (State, bool) {
	rule, ok := w.transitions[transitionKey{action: action, state: current}]
	if !ok {
		return "", false
	}
	return rule.ResultingState, true
}

// PermittedStates returns the sorted set of states the action is allowed
// from. Used to build precise operation-not-permitted errors.
func (w *Workflow) PermittedStates(action Action) []State {
	var states []State
	for key := range w.transitions {
		if key.action == action {
			states = append(states, key.state)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

// Validate checks the table for rules that transition into unknown territory,
// such as an action permitted from a terminal state.
func (w *Workflow) Validate() error {
	for key := range w.transitions {
		if key.state.IsTerminal() {
			return errors.Domain(errors.CodeWorkflowInvalid.String(),
				"workflow permits action from terminal state").
				WithData("action", key.action.String()).
				WithData("state", key.state.String()).
				Build()
		}
	}
	return nil
}

// DefaultWorkflow returns the standard transition table products start from.
// Products override it per release via configuration; there is no shared
// fallback instance, callers always receive their own copy.
func DefaultWorkflow() *Workflow {
	return NewWorkflow("default", map[Action]map[State]TransitionRule{
		ActionSubmit: {
			StateIncomplete: {ResultingState: StateComplete},
		},
		ActionAutoApprove: {
			StateComplete: {ResultingState: StateAutoApproved},
		},
		ActionReferForReview: {
			StateComplete: {ResultingState: StateReviewReferred},
		},
		ActionApproveReview: {
			StateReviewReferred: {ResultingState: StateReviewApproved},
		},
		ActionReferForEndorsement: {
			StateComplete:       {ResultingState: StateEndorsementReferred},
			StateReviewApproved: {ResultingState: StateEndorsementReferred},
			StateReviewReferred: {ResultingState: StateEndorsementReferred},
		},
		ActionApproveEndorsement: {
			StateEndorsementReferred: {ResultingState: StateEndorsementApproved},
		},
		ActionDecline: {
			StateComplete:            {ResultingState: StateDeclined},
			StateReviewReferred:      {ResultingState: StateDeclined},
			StateReviewApproved:      {ResultingState: StateDeclined},
			StateEndorsementReferred: {ResultingState: StateDeclined},
			StateEndorsementApproved: {ResultingState: StateDeclined},
			StateApproved:            {ResultingState: StateDeclined},
			StateAutoApproved:        {ResultingState: StateDeclined},
		},
		ActionBind: {
			StateApproved:            {ResultingState: StateBound},
			StateAutoApproved:        {ResultingState: StateBound},
			StateReviewApproved:      {ResultingState: StateBound},
			StateEndorsementApproved: {ResultingState: StateBound},
		},
		ActionReturnToIncomplete: {
			StateComplete:            {ResultingState: StateIncomplete},
			StateReviewReferred:      {ResultingState: StateIncomplete},
			StateEndorsementReferred: {ResultingState: StateIncomplete},
		},
		ActionExpire: {
			StateNascent:             {ResultingState: StateExpired},
			StateIncomplete:          {ResultingState: StateExpired},
			StateComplete:            {ResultingState: StateExpired},
			StateApproved:            {ResultingState: StateExpired},
			StateAutoApproved:        {ResultingState: StateExpired},
			StateReviewReferred:      {ResultingState: StateExpired},
			StateReviewApproved:      {ResultingState: StateExpired},
			StateEndorsementReferred: {ResultingState: StateExpired},
			StateEndorsementApproved: {ResultingState: StateExpired},
		},
		ActionDiscard: {
			StateNascent:             {ResultingState: StateDiscarded},
			StateIncomplete:          {ResultingState: StateDiscarded},
			StateComplete:            {ResultingState: StateDiscarded},
			StateApproved:            {ResultingState: StateDiscarded},
			StateAutoApproved:        {ResultingState: StateDiscarded},
			StateReviewReferred:      {ResultingState: StateDiscarded},
			StateReviewApproved:      {ResultingState: StateDiscarded},
			StateEndorsementReferred: {ResultingState: StateDiscarded},
			StateEndorsementApproved: {ResultingState: StateDiscarded},
		},
	})
}
