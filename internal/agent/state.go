package agent

import (
	"errors"
	"fmt"

	"github.com/teemow/tasksagent/internal/llm"
)

// ErrInvalidTransition is returned when the loop attempts a move the
// transition table does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// Phase is a state of the control loop.
type Phase int

const (
	PhaseBootstrap Phase = iota
	PhaseModelTurn
	PhaseToolTurn
	PhaseFinalize
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrap:
		return "bootstrap"
	case PhaseModelTurn:
		return "model_turn"
	case PhaseToolTurn:
		return "tool_turn"
	case PhaseFinalize:
		return "finalize"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// transitions lists the legal successors of every phase.
var transitions = map[Phase][]Phase{
	PhaseBootstrap: {PhaseModelTurn},
	PhaseModelTurn: {PhaseToolTurn, PhaseFinalize},
	PhaseToolTurn:  {PhaseModelTurn},
	PhaseFinalize:  {PhaseDone},
}

func canTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// State is the conversation state of one run. It is owned by a single run
// and never shared.
type State struct {
	RunID     string
	Messages  []llm.Message
	LLMCalls  int
	UsedTools []string

	// Rounds counts model turns that may request tools.
	Rounds int

	// Capped is set when the round limit forced finalization.
	Capped bool

	phase Phase
}

func newState(runID, userText string) *State {
	return &State{
		RunID:     runID,
		Messages:  []llm.Message{llm.HumanMessage{Content: userText}},
		UsedTools: []string{},
		phase:     PhaseBootstrap,
	}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return s.phase
}

func (s *State) append(m llm.Message) {
	s.Messages = append(s.Messages, m)
}

func (s *State) advance(to Phase) error {
	if !canTransition(s.phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
	}
	s.phase = to
	return nil
}

// lastAI returns the most recent message if it is an AIMessage.
func (s *State) lastAI() (llm.AIMessage, bool) {
	if len(s.Messages) == 0 {
		return llm.AIMessage{}, false
	}
	ai, ok := s.Messages[len(s.Messages)-1].(llm.AIMessage)
	return ai, ok
}
