package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/tasksagent/internal/llm"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseBootstrap, PhaseModelTurn, true},
		{PhaseModelTurn, PhaseToolTurn, true},
		{PhaseModelTurn, PhaseFinalize, true},
		{PhaseToolTurn, PhaseModelTurn, true},
		{PhaseFinalize, PhaseDone, true},
		{PhaseBootstrap, PhaseToolTurn, false},
		{PhaseToolTurn, PhaseFinalize, false},
		{PhaseToolTurn, PhaseToolTurn, false},
		{PhaseDone, PhaseModelTurn, false},
		{PhaseFinalize, PhaseModelTurn, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestState_Advance(t *testing.T) {
	s := newState("run-1", "hello")
	assert.Equal(t, PhaseBootstrap, s.Phase())
	assert.Equal(t, []llm.Message{llm.HumanMessage{Content: "hello"}}, s.Messages)
	assert.NotNil(t, s.UsedTools)

	require.NoError(t, s.advance(PhaseModelTurn))
	err := s.advance(PhaseDone)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseModelTurn, s.Phase())
}

func TestState_LastAI(t *testing.T) {
	s := newState("run-1", "hello")
	_, ok := s.lastAI()
	assert.False(t, ok)

	s.append(llm.AIMessage{Content: "hi"})
	ai, ok := s.lastAI()
	require.True(t, ok)
	assert.Equal(t, "hi", ai.Content)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "model_turn", PhaseModelTurn.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
