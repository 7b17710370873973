package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultArgs(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "no args", args: nil, want: []string{"ask"}},
		{name: "free text", args: []string{"list", "my", "tasks"}, want: []string{"ask", "list", "my", "tasks"}},
		{name: "quoted request", args: []string{"add buy milk"}, want: []string{"ask", "add buy milk"}},
		{name: "subcommand", args: []string{"serve", "--http-addr", ":8081"}, want: []string{"serve", "--http-addr", ":8081"}},
		{name: "ask explicitly", args: []string{"ask", "hi"}, want: []string{"ask", "hi"}},
		{name: "flag first", args: []string{"--version"}, want: []string{"--version"}},
		{name: "help", args: []string{"help"}, want: []string{"help"}},
		{name: "only persistent flags", args: []string{"--debug"}, want: []string{"ask", "--debug"}},
		{name: "persistent flag before text", args: []string{"--backend", "memory", "hi"}, want: []string{"ask", "--backend", "memory", "hi"}},
		{name: "persistent flag before subcommand", args: []string{"--backend=memory", "mcp"}, want: []string{"--backend=memory", "mcp"}},
		{name: "persistent flag value looks like a command", args: []string{"--task-list", "serve"}, want: []string{"ask", "--task-list", "serve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultArgs(root, tt.args))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	old := version
	version = "1.2.3"
	t.Cleanup(func() { version = old })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "tasksagent version 1.2.3\n", out.String())
}

func TestInvalidBackend(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ask", "--backend", "sqlite", "hi"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
}
