// Package tasks provides the task backend used by the agent.
//
// Backend is the narrow interface the tool layer talks to: list, create,
// update and delete on a single task list. Two implementations exist:
//   - Client wraps the Google Tasks API (tasks/v1)
//   - MemoryBackend keeps tasks in process, for tests and offline runs
//
// Update is fetch-then-merge: only the fields set in a TaskPatch are written
// back. Deleting or updating a task that does not exist returns an error
// wrapping ErrNotFound.
//
// # Authentication
//
// Client does not load credentials itself. Pass an authenticated HTTP client
// built by the google package:
//
//	httpClient, err := google.NewHTTPClient(ctx, google.DefaultCredentialsConfig())
//	if err != nil {
//	    return err
//	}
//	client, err := tasks.NewClient(ctx, tasks.DefaultTaskListID, option.WithHTTPClient(httpClient))
//
// # Example Usage
//
//	task, err := client.Create(ctx, tasks.TaskInput{
//	    Title: "Pay the electricity bill",
//	    Due:   time.Now().AddDate(0, 0, 7),
//	})
//	if err != nil {
//	    return err
//	}
//
//	done := tasks.StatusCompleted
//	_, err = client.Update(ctx, task.ID, tasks.TaskPatch{Status: &done})
package tasks
