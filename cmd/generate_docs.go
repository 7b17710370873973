package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/tasksagent/internal/tasks"
	"github.com/teemow/tasksagent/internal/tools/tasks_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate tool documentation",
		Long: `Generate markdown documentation for the task tools offered to the model
and to MCP clients. The tools are introspected from their registered schemas,
so the documentation always matches the implementation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(stdout, stderr io.Writer, outputFile string) error {
	// Schemas do not depend on the backend, so no credentials are needed.
	reg, err := tasks_tools.NewRegistry(tasks.NewMemoryBackend())
	if err != nil {
		return fmt.Errorf("failed to create tool registry: %w", err)
	}

	mcpSrv := newMCPServer(reg)
	names := reg.Names()
	tools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		serverTool := mcpSrv.GetTool(name)
		if serverTool == nil {
			return fmt.Errorf("tool %s is not registered with the MCP server", name)
		}
		tools = append(tools, serverTool.Tool)
	}

	markdown, err := generateToolsMarkdown(tools)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(stderr, "Documentation written to: %s\n", outputFile)
		return nil
	}
	_, err = io.WriteString(stdout, markdown)
	return err
}

func generateToolsMarkdown(tools []mcp.Tool) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Tools Reference\n\n")
	sb.WriteString("This document lists the tools tasksagent offers to the language model and, through `tasksagent mcp`, to MCP clients.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	sb.WriteString("Every tool answers with a JSON envelope. On success it is `{\"ok\": true, ...}` with the tool's data next to the flag; ")
	sb.WriteString("on failure it is `{\"ok\": false, \"error\": \"...\"}`.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			doc, err := generateToolMarkdown(tool)
			if err != nil {
				return "", err
			}
			sb.WriteString(doc)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	switch prefix {
	case "tasks":
		return "Google Tasks Tools"
	default:
		return "Other"
	}
}

// toolSchema is the subset of a JSON Schema rendered in the docs.
type toolSchema struct {
	Properties map[string]map[string]any `json:"properties"`
	Required   []string                  `json:"required"`
}

func inputSchema(tool mcp.Tool) (toolSchema, error) {
	var schema toolSchema
	if len(tool.RawInputSchema) == 0 {
		schema.Required = tool.InputSchema.Required
		schema.Properties = make(map[string]map[string]any, len(tool.InputSchema.Properties))
		for name, prop := range tool.InputSchema.Properties {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = propMap
			}
		}
		return schema, nil
	}
	if err := json.Unmarshal(tool.RawInputSchema, &schema); err != nil {
		return schema, fmt.Errorf("failed to decode schema of %s: %w", tool.Name, err)
	}
	return schema, nil
}

func generateToolMarkdown(tool mcp.Tool) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	schema, err := inputSchema(tool)
	if err != nil {
		return "", err
	}
	if len(schema.Properties) == 0 {
		sb.WriteString("**Arguments:** none\n")
		return sb.String(), nil
	}

	sb.WriteString("**Arguments:**\n")

	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, name := range propNames {
		prop := schema.Properties[name]

		requiredStr := "optional"
		if contains(schema.Required, name) {
			requiredStr = "required"
		}

		fmt.Fprintf(&sb, "- `%s` (%s, %s): ", name, getPropertyType(prop), requiredStr)
		if desc, ok := prop["description"].(string); ok && desc != "" {
			sb.WriteString(desc)
		} else {
			fmt.Fprintf(&sb, "%s parameter", getPropertyType(prop))
		}
		if values := enumValues(prop); len(values) > 0 {
			fmt.Fprintf(&sb, " One of: `%s`.", strings.Join(values, "`, `"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String(), nil
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func enumValues(prop map[string]any) []string {
	raw, ok := prop["enum"].([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		values = append(values, fmt.Sprint(v))
	}
	return values
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
