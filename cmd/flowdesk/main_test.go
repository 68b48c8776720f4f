package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const welcome = `{
  "id": "welcome",
  "name": "Welcome",
  "startNode": {"id": "start"},
  "endNodes": [{"id": "end"}],
  "connections": [{"id": "e-start-end", "source": "start", "target": "end"}]
}`

const derived = `{
  "id": "derived",
  "name": "Derived",
  "startNode": {"id": "start"},
  "menus": [{"id": "menu", "title": "Main", "message": "Pick one", "options": [{"text": "Bye", "nextNodeId": "bye"}]}],
  "endNodes": [{"id": "bye"}]
}`

// resetFlags restores every flag to its default, since the command tree is
// shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FLOWDESK_STORAGE_DRIVER", "file")
	if _, ok := os.LookupEnv("FLOWDESK_STORAGE_DIR"); !ok {
		t.Setenv("FLOWDESK_STORAGE_DIR", t.TempDir())
	}

	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowdesk version")
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate", "--plain", writeDoc(t, "welcome.json", welcome))
	require.NoError(t, err)
	assert.Contains(t, out, "# Flow welcome: validated")
	assert.Contains(t, out, "0 error(s)")
}

func TestValidate_ErrorsFailTheCommand(t *testing.T) {
	out, _, err := execute(t, "validate", "--plain", writeDoc(t, "broken.json", `{"id": "broken", "name": "Broken"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow broken has errors")
	assert.Contains(t, out, "❌")
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := execute(t, "validate", "--json", writeDoc(t, "welcome.json", welcome))
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "validated"`)
}

func TestValidate_NeedsInput(t *testing.T) {
	_, _, err := execute(t, "validate")
	assert.ErrorContains(t, err, "needs a file")
}

func TestGraph(t *testing.T) {
	out, _, err := execute(t, "graph", "--selected", "start", writeDoc(t, "welcome.json", welcome))
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class start selected;")
}

func TestNormalize(t *testing.T) {
	path := writeDoc(t, "derived.json", derived)

	out, errOut, err := execute(t, "normalize", path)
	require.NoError(t, err)
	assert.Contains(t, out, "e-menu-option-1")
	assert.Contains(t, errOut, "connection(s) added")

	_, _, err = execute(t, "normalize", "--write", path)
	require.NoError(t, err)
	_, errOut, err = execute(t, "normalize", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "already canonical")
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$defs"`)
	assert.Contains(t, out, `"connections"`)
}

func TestStoreCommands(t *testing.T) {
	t.Setenv("FLOWDESK_STORAGE_DIR", t.TempDir())

	out, _, err := execute(t, "import", writeDoc(t, "welcome.json", welcome))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported welcome")

	out, _, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "welcome")
	assert.Contains(t, out, "PENDING")

	_, _, err = execute(t, "validate", "--plain", "--stored", "welcome")
	require.NoError(t, err)

	out, _, err = execute(t, "export", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, `"e-start-end"`)
	assert.Contains(t, out, `"validated"`)

	_, _, err = execute(t, "delete", "welcome")
	require.NoError(t, err)
	_, _, err = execute(t, "export", "welcome")
	assert.Error(t, err)
}

func TestMCP_UnknownTransport(t *testing.T) {
	_, _, err := execute(t, "mcp", "--transport", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown transport")
}
