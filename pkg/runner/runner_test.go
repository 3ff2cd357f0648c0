package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func TestRunCapturesStdoutStderrAndExitCode(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "echo.sh", "#!/bin/sh\necho out-line\necho err-line 1>&2\nexit 3\n")

	r := New(dir)
	var events []Event
	observer := ObserverFunc(func(e Event) { events = append(events, e) })

	result, err := r.Run(context.Background(), "echo.sh", nil, nil, observer)
	require.NoError(t, err)
	assert.Equal(t, "out-line\n", string(result.Stdout))
	assert.Equal(t, "err-line\n", string(result.Stderr))
	assert.Equal(t, 3, result.ExitCode)

	var gotExit bool
	for _, e := range events {
		if e.Kind == "exit" {
			gotExit = true
			assert.Equal(t, 3, e.Code)
		}
	}
	assert.True(t, gotExit)
}

func TestRunRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	writeScript(t, outside, "escape.sh", "#!/bin/sh\necho hi\n")

	r := New(dir)
	_, err := r.Run(context.Background(), "../"+filepath.Base(outside)+"/escape.sh", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRejectsMissingScript(t *testing.T) {
	r := New(t.TempDir())
	_, err := r.Run(context.Background(), "nope.sh", nil, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunPassesEnvVerbatim(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "env.sh", "#!/bin/sh\necho \"$GREETING\"\n")

	r := New(dir)
	result, err := r.Run(context.Background(), "env.sh", nil, map[string]string{"GREETING": "hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(result.Stdout))
}

func TestSiloRunnerOverlaysDataURL(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "dump.sh", "#!/bin/sh\necho \"$DATA_URL\"\n")

	sr := NewSiloRunner(New(dir), "http://127.0.0.1:8082")
	result, err := sr.Run(context.Background(), "dump.sh", nil, map[string]string{"OTHER": "x"}, "abc123", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8082/abc123\n", string(result.Stdout))
}
