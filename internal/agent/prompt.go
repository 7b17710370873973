package agent

import (
	"fmt"
	"strings"
	"time"
)

const basePrompt = `You are a helpful assistant that manages the user's Google Tasks.

You can list, create, update and delete tasks with the provided tools.
- Prefer the task snapshot provided in the context if there is one; call tasks.list only when you need fresh data.
- To update or delete a task you need its ID. Look it up with tasks.list first if you do not have it.
- Never invent task IDs. If no task matches the user's description, say so instead of guessing.
- Due dates must be RFC3339 timestamps, e.g. 2025-01-31T00:00:00Z.
- To mark a task as done, update its status to "completed".
- When a tool reports an error, explain the problem to the user or try a different approach.`

func systemPrompt(language string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	fmt.Fprintf(&sb, "\n\nToday is %s (%s).", now.Format("Monday, 2006-01-02"), now.Format(time.RFC3339))
	if language != "" {
		fmt.Fprintf(&sb, "\nAlways answer in %s.", language)
	} else {
		sb.WriteString("\nAnswer in the language the user wrote in.")
	}
	return sb.String()
}

func preloadMessage(snapshot string) string {
	return "Initial context from tasks.list (fetched before the first model call). " +
		"Use this snapshot first and only call tasks.list again if you need fresh data.\n" + snapshot
}

func preloadFailedMessage(reason string) string {
	return fmt.Sprintf("Preloading the task list failed (%s). Call tasks.list if you need the current tasks.", reason)
}

const finalizeInstruction = `Summarize the outcome for the user now. Do not call any tools.
Respond with only a JSON object of the form {"answer": "<message to the user>", "success": <true|false>}.
Set success to false if the request could not be fulfilled.`

const cappedNote = `The maximum number of tool rounds has been reached and no further tools will be run.
Report what was done so far and what is still open.
`
