package agent

// Output is the terminal result of one run.
type Output struct {
	Answer    string   `json:"answer"`
	Success   bool     `json:"success"`
	UsedTools []string `json:"used_tools"`
	LLMCalls  int      `json:"llm_calls"`
}

// Answers used when the model produced nothing usable.
const (
	TimeoutAnswer  = "request timed out"
	NoAnswerAnswer = "The assistant did not produce a final answer."
)

func newOutput(state *State, answer string, success bool) *Output {
	used := make([]string, len(state.UsedTools))
	copy(used, state.UsedTools)
	return &Output{
		Answer:    answer,
		Success:   success,
		UsedTools: used,
		LLMCalls:  state.LLMCalls,
	}
}
