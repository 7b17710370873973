package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the tasksagent application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "tasksagent version %s\n" .Version}}`)
	rootCmd.SetArgs(defaultArgs(rootCmd, os.Args[1:]))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasksagent",
		Short: "Manage Google Tasks with natural language",
		Long: `tasksagent lets a language model list, create, update and delete your
Google Tasks from plain-language instructions.

It can run as:
  - A one-shot CLI: tasksagent "add buy milk due tomorrow" (default)
  - An HTTP API: tasksagent serve
  - An MCP (Model Context Protocol) server exposing the task tools: tasksagent mcp`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-format", getEnvOrDefault("LOG_FORMAT", "text"), "Log format: text or json. Can also use LOG_FORMAT env var.")
	cmd.PersistentFlags().String("backend", getEnvOrDefault("TASKS_BACKEND", backendGoogle), "Task backend: google or memory. Can also use TASKS_BACKEND env var.")
	cmd.PersistentFlags().String("task-list", getEnvOrDefault("TASKS_LIST_ID", "@default"), "Google Tasks list ID. Can also use TASKS_LIST_ID env var.")

	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// defaultArgs routes free text to the ask command, so that
// `tasksagent list my tasks` behaves like `tasksagent ask list my tasks`.
// Leading persistent flags are skipped; any other flag is left to cobra.
func defaultArgs(root *cobra.Command, args []string) []string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		name := strings.TrimLeft(args[i], "-")
		if name == "" {
			break
		}
		i++
		if strings.Contains(name, "=") {
			continue
		}
		f := root.PersistentFlags().Lookup(name)
		if f == nil {
			return args
		}
		if f.Value.Type() != "bool" {
			i++
		}
	}

	if i < len(args) {
		first := args[i]
		if first == "help" || first == "completion" {
			return args
		}
		for _, c := range root.Commands() {
			if c.Name() == first || c.HasAlias(first) {
				return args
			}
		}
	}
	return append([]string{"ask"}, args...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
