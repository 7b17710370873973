// Package agent implements the request loop that turns a natural-language
// instruction into task tool calls.
//
// A run is an explicit state machine:
//
//	Bootstrap -> ModelTurn -> ToolTurn -> ModelTurn -> ... -> Finalize -> Done
//
// Bootstrap optionally preloads the task list into the conversation.
// ModelTurn asks the model for the next step; when it requests tools the
// run moves to ToolTurn, which executes every call in order and appends
// one tool message per call id. A reply without tool calls, or reaching
// the round limit, moves the run to Finalize, where one extra model call
// produces the structured answer returned as Output.
//
// Every run has its own State, so concurrent calls to Agent.Run are safe.
package agent
