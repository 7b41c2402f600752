package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/previewnote/internal/testforge"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newForge(t *testing.T) *testforge.TestForge {
	t.Helper()
	tf := testforge.New(t, "glpat-test")
	tf.AddMergeRequest(tf.AddProject(3, "espressif/docs"), 9, "Docs")
	return tf
}

func TestRun_DefaultCommandPostsNote(t *testing.T) {
	t.Chdir(t.TempDir())
	logFile := writeFile(t, ".", "doc-url.txt",
		"[document preview][en_esp32s2][http://x/s2]\n[document preview][zh_CN_esp32s2][http://x/s2-zh]\n")

	tf := newForge(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"glpat-test", "espressif/docs", "9", "--url", tf.URL(), "--log-file", logFile}, &stdout, &stderr, tf.Client())

	require.Equal(t, 0, code, stderr.String())
	notes := tf.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "Documentation preview:\n\n- ESP32-S2 [勘误表](http://x/s2-zh)/[Errata](http://x/s2)\n", notes[0].Body)
	assert.Contains(t, stdout.String(), "https://gitlab.example.com/espressif/docs/-/merge_requests/9#note_1")
}

func TestRun_MissingURLIsUsageError(t *testing.T) {
	t.Setenv("CI_SERVER_URL", "")
	require.NoError(t, os.Unsetenv("CI_SERVER_URL"))
	var stdout, stderr bytes.Buffer
	code := run([]string{"token", "group/project", "1"}, &stdout, &stderr, nil)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "--url")
}

func TestRun_MissingPositionalIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"post", "token", "--url", "https://gitlab.example.com"}, &stdout, &stderr, nil)
	assert.Equal(t, 2, code)
}

func TestRun_MissingLogFileExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	tf := newForge(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"glpat-test", "espressif/docs", "9", "--url", tf.URL()}, &stdout, &stderr, tf.Client())
	assert.Equal(t, 11, code)
	assert.Contains(t, stderr.String(), "failed to open preview log")
	assert.Empty(t, tf.Notes())
}

func TestRun_AuthFailureExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	logFile := writeFile(t, ".", "doc-url.txt", "")
	tf := newForge(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"wrong", "espressif/docs", "9", "--url", tf.URL(), "--log-file", logFile}, &stdout, &stderr, tf.Client())
	assert.Equal(t, 5, code)
	assert.Empty(t, tf.Notes())
}

func TestRun_RenderCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	logFile := writeFile(t, dir, "doc-url.txt", "[document preview][en_esp32c6][http://x/c6]\n")
	cfgFile := writeFile(t, dir, "previewnote.yaml", "note:\n  header: \"Preview:\"\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", cfgFile, "render", "--log-file", logFile}, &stdout, &stderr, nil)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Preview:\n\n- ESP32-C6 勘误表/[Errata](http://x/c6)\n", stdout.String())
}

func TestRun_BadConfigExitCode(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfgFile := writeFile(t, dir, "bad.yaml", "unknown_key: true\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", cfgFile, "render"}, &stdout, &stderr, nil)
	assert.Equal(t, 7, code)
}

func TestRun_DryRunPrintsNote(t *testing.T) {
	t.Chdir(t.TempDir())
	logFile := writeFile(t, ".", "doc-url.txt", "[document preview][en_esp32h2][http://x/h2]\n")
	tf := newForge(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"post", "glpat-test", "espressif/docs", "9", "--url", tf.URL(), "--log-file", logFile, "--dry-run"}, &stdout, &stderr, tf.Client())
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Documentation preview:\n\n- ESP32-H2 勘误表/[Errata](http://x/h2)\n", stdout.String())
	assert.Empty(t, tf.Requests())
}

func TestRun_URLFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	logFile := writeFile(t, ".", "doc-url.txt", "")
	tf := newForge(t)
	t.Setenv("CI_SERVER_URL", tf.URL())

	var stdout, stderr bytes.Buffer
	code := run([]string{"glpat-test", "espressif/docs", "9", "--log-file", logFile}, &stdout, &stderr, tf.Client())
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, tf.Notes(), 1)
	assert.Equal(t, "Documentation preview:\n\n", tf.Notes()[0].Body)
}

func TestRun_URLFromDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CI_SERVER_URL", "")
	require.NoError(t, os.Unsetenv("CI_SERVER_URL"))
	logFile := writeFile(t, ".", "doc-url.txt", "[document preview][en_esp32h2][http://x/h2]\n")
	tf := newForge(t)
	writeFile(t, ".", ".env", "CI_SERVER_URL="+tf.URL()+"\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"glpat-test", "espressif/docs", "9", "--log-file", logFile}, &stdout, &stderr, tf.Client())
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, tf.Notes(), 1)
	assert.Contains(t, tf.Notes()[0].Body, "[Errata](http://x/h2)")
}

func TestRun_InvalidDotEnvExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, ".", ".env", "NOT-A-NAME=1\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"render"}, &stdout, &stderr, nil)
	assert.Equal(t, 7, code)
	assert.Contains(t, stderr.String(), "failed to load .env file")
}
