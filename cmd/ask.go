package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/tasksagent/internal/agent"
)

// defaultRequest is used when the request text is empty.
const defaultRequest = "List my tasks"

func newAskCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ask [request...]",
		Short: "Run one natural-language request against your tasks",
		Long: `Send a request such as "add buy milk due friday" or "I called mom" to the
language model, let it operate on your Google Tasks and print its answer.

Without a request, "List my tasks" is used.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, requestText(args), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")

	return cmd
}

func requestText(args []string) string {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return defaultRequest
	}
	return text
}

func runAsk(cmd *cobra.Command, request string, jsonOutput bool) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := readGlobalOptions(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ag, err := a.newAgent(ctx, agent.DefaultConfig())
	if err != nil {
		return err
	}

	out, err := ag.Run(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to process request: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Answer)
	return nil
}
