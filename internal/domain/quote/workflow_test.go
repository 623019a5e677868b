package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverstack-backend/internal/errors"
)

func TestDefaultWorkflowTransitions(t *testing.T) {
	wf := DefaultWorkflow()

	tests := []struct {
		name      string
		action    Action
		from      State
		want      State
		permitted bool
	}{
		{"submit from incomplete", ActionSubmit, StateIncomplete, StateComplete, true},
		{"submit from nascent rejected", ActionSubmit, StateNascent, "", false},
		{"auto approve from complete", ActionAutoApprove, StateComplete, StateAutoApproved, true},
		{"refer for review from complete", ActionReferForReview, StateComplete, StateReviewReferred, true},
		{"approve review", ActionApproveReview, StateReviewReferred, StateReviewApproved, true},
		{"refer for endorsement from review approved", ActionReferForEndorsement, StateReviewApproved, StateEndorsementReferred, true},
		{"approve endorsement", ActionApproveEndorsement, StateEndorsementReferred, StateEndorsementApproved, true},
		{"bind from auto approved", ActionBind, StateAutoApproved, StateBound, true},
		{"bind from incomplete rejected", ActionBind, StateIncomplete, "", false},
		{"decline from review referred", ActionDecline, StateReviewReferred, StateDeclined, true},
		{"return to incomplete from complete", ActionReturnToIncomplete, StateComplete, StateIncomplete, true},
		{"expire from nascent", ActionExpire, StateNascent, StateExpired, true},
		{"discard from complete", ActionDiscard, StateComplete, StateDiscarded, true},
		{"discard from bound rejected", ActionDiscard, StateBound, "", false},
		{"submit from declined rejected", ActionSubmit, StateDeclined, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := wf.ResultingState(tt.action, tt.from)
			assert.Equal(t, tt.permitted, ok)
			assert.Equal(t, tt.permitted, wf.IsActionPermitted(tt.action, tt.from))
			if tt.permitted {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestWorkflowValidateRejectsTransitionsFromTerminalStates(t *testing.T) {
	wf := NewWorkflow("broken", map[Action]map[State]TransitionRule{
		ActionSubmit: {
			StateDeclined: {ResultingState: StateComplete},
		},
	})

	err := wf.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsDomain(err))
}

func TestWorkflowValidateAcceptsDefault(t *testing.T) {
	require.NoError(t, DefaultWorkflow().Validate())
}

func TestWorkflowPermittedStatesSorted(t *testing.T) {
	wf := DefaultWorkflow()

	states := wf.PermittedStates(ActionBind)
	require.Len(t, states, 4)
	for i := 1; i < len(states); i++ {
		assert.Less(t, states[i-1], states[i])
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateDeclined, StateBound, StateExpired, StateDiscarded} {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}
	for _, s := range []State{StateNascent, StateIncomplete, StateComplete, StateReviewReferred, StateEndorsementApproved} {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}
