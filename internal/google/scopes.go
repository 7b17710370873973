package google

// TasksScope grants read and write access to Google Tasks.
const TasksScope = "https://www.googleapis.com/auth/tasks"

// DefaultOAuthScopes are the scopes requested when building the OAuth config
// from the client secrets file.
var DefaultOAuthScopes = []string{
	TasksScope,
}
