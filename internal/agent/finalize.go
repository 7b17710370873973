package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/teemow/tasksagent/internal/llm"
)

// finalize asks the model for a structured summary of the run.
func (a *Agent) finalize(ctx context.Context, state *State, system string) (*Output, error) {
	instruction := finalizeInstruction
	if state.Capped {
		instruction = cappedNote + instruction
	}
	state.append(llm.HumanMessage{Content: instruction})

	msg, err := a.generate(ctx, state, llm.Request{
		System:         system,
		Messages:       state.Messages,
		Tools:          a.specs,
		DisableToolUse: true,
		JSONOutput:     true,
	})
	if err != nil {
		return nil, err
	}
	state.append(*msg)

	answer, success, ok := parseFinal(msg.Content)
	if !ok {
		answer = strings.TrimSpace(msg.Content)
		success = true
	}
	if state.Capped {
		success = false
	}
	if answer == "" {
		return newOutput(state, NoAnswerAnswer, false), nil
	}
	return newOutput(state, answer, success), nil
}

type finalAnswer struct {
	Answer  *string `json:"answer"`
	Success *bool   `json:"success"`
}

// parseFinal extracts {"answer", "success"} from model text. Markdown code
// fences and text around the object are tolerated. A missing success
// field counts as true.
func parseFinal(text string) (answer string, success bool, ok bool) {
	body := stripFences(strings.TrimSpace(text))

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return "", false, false
	}

	var final finalAnswer
	if err := json.Unmarshal([]byte(body[start:end+1]), &final); err != nil {
		return "", false, false
	}
	if final.Answer == nil {
		return "", false, false
	}

	success = true
	if final.Success != nil {
		success = *final.Success
	}
	return strings.TrimSpace(*final.Answer), success, true
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
