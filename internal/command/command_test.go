package command

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/journal/internal/sec"
)

func testConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.toml")
	data := fmt.Sprintf("dev_mode = true\nlog_level = \"error\"\ndatabase_url = %q\n",
		filepath.Join(dir, "db.sqlite"))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func execute(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := RootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestEntryCommands(t *testing.T) {
	t.Parallel()

	cfgPath := testConfigFile(t)

	out, err := execute(t, cfgPath, "##Hello\n\nFrom stdin.\n", "entry", "create", "--title", "First")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	htmlPath := filepath.Join(t.TempDir(), "post.html")
	require.NoError(t, os.WriteFile(htmlPath,
		[]byte(`<html><body><h2>Imported</h2><p>Some <b>bold</b> text.</p><script>x()</script></body></html>`),
		0o600))
	out, err = execute(t, cfgPath, "", "entry", "import", "--title", "Second", htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = execute(t, cfgPath, "", "entry", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2\t"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "\tSecond"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "\tFirst"), lines[1])

	// declined confirmation keeps the entry
	_, err = execute(t, cfgPath, "n\n", "entry", "delete", "1")
	require.NoError(t, err)
	out, err = execute(t, cfgPath, "", "entry", "list")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	_, err = execute(t, cfgPath, "y\n", "entry", "delete", "1")
	require.NoError(t, err)
	_, err = execute(t, cfgPath, "", "entry", "delete", "--yes", "1")
	require.Error(t, err)

	_, err = execute(t, cfgPath, "", "entry", "seed", "--seed", "42", "3")
	require.NoError(t, err)
	out, err = execute(t, cfgPath, "", "entry", "list")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestEntryCreate_Invalid(t *testing.T) {
	t.Parallel()

	cfgPath := testConfigFile(t)

	_, err := execute(t, cfgPath, "text", "entry", "create")
	require.Error(t, err, "title is required")

	_, err = execute(t, cfgPath, "   ", "entry", "create", "--title", "Blank")
	require.Error(t, err)

	_, err = execute(t, cfgPath, "", "entry", "seed", "zero")
	require.Error(t, err)
}

func TestPasswd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "/nonexistent/journal.toml", "hunter22\n", "passwd")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	require.NoError(t, sec.ComparePassword("hunter22", []byte(hash)))

	_, err = execute(t, "/nonexistent/journal.toml", "\n", "passwd")
	require.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		data string
		want string
	}{
		{path: "a.html", want: "text/html"},
		{path: "a.HTM", want: "text/html"},
		{path: "a.xhtml", want: "application/xhtml+xml"},
		{path: "a.md", want: "text/markdown"},
		{path: "a.txt", want: "text/plain"},
		{path: "a", data: "<!DOCTYPE html><html></html>", want: "text/html; charset=utf-8"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, detectContentType(test.path, []byte(test.data)), test.path)
	}
}
