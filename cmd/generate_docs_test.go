package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDocs(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, runGenerateDocs(&out, &errOut, ""))

	doc := out.String()
	assert.Contains(t, doc, "# Tools Reference")
	assert.Contains(t, doc, "## Google Tasks Tools")
	for _, name := range []string{"tasks.create", "tasks.delete", "tasks.list", "tasks.update"} {
		assert.Contains(t, doc, "### "+name)
	}
	assert.Contains(t, doc, "- `title` (string, required): Title of the task")
	assert.Contains(t, doc, "- `limit` (integer, optional)")
	assert.Contains(t, doc, "One of: `needsAction`, `completed`.")
	assert.Empty(t, errOut.String())
}

func TestGenerateDocs_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.md")

	var out, errOut bytes.Buffer
	require.NoError(t, runGenerateDocs(&out, &errOut, path))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### tasks.list")
}

func TestGenerateToolMarkdown_NoArguments(t *testing.T) {
	doc, err := generateToolMarkdown(mcp.NewTool("tasks.noop", mcp.WithDescription("Does nothing")))
	require.NoError(t, err)
	assert.Equal(t, "### tasks.noop\n\nDoes nothing\n\n**Arguments:** none\n", doc)
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Google Tasks Tools", getCategoryFromToolName("tasks.list"))
	assert.Equal(t, "Other", getCategoryFromToolName("gmail_list"))
}
