package machine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/silo"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	r := runner.New(t.TempDir())
	m := New(Config{
		Store:       store.NewMemory(),
		Runner:      r,
		DataURLRoot: "http://127.0.0.1:8082",
	})
	t.Cleanup(m.Close)
	return m
}

// S1 — Cached read.
func TestCachedRead(t *testing.T) {
	m := newTestMachine(t)

	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	require.NoError(t, m.DataPut(handle, "k", store.Value("V")))

	got, err := m.DataGet(context.Background(), handle, "k", silo.GetOptions{Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("V"), got)
}

// S2 — Prompt then cache.
func TestPromptThenCache(t *testing.T) {
	m := newTestMachine(t)

	channel := m.ChannelOpen()
	_, err := m.ChannelConnect(channel, func(q Question) {
		go func() {
			_ = m.AnswerQuestion(q.ID, "42")
		}()
	})
	require.NoError(t, err)

	handle, err := m.MakeSilo("jim", "s", channel)
	require.NoError(t, err)

	got, err := m.DataGet(context.Background(), handle, "age", silo.GetOptions{Prompt: "age?", Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)

	got, err = m.DataGet(context.Background(), handle, "age", silo.GetOptions{Save: true})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)
}

// S3 — No-save prompt.
func TestNoSavePrompt(t *testing.T) {
	m := newTestMachine(t)

	channel := m.ChannelOpen()
	_, err := m.ChannelConnect(channel, func(q Question) {
		go func() {
			_ = m.AnswerQuestion(q.ID, "42")
		}()
	})
	require.NoError(t, err)

	handle, err := m.MakeSilo("jim", "s", channel)
	require.NoError(t, err)

	got, err := m.DataGet(context.Background(), handle, "age", silo.GetOptions{Prompt: "age?", Save: false})
	require.NoError(t, err)
	assert.Equal(t, store.Value("42"), got)

	_, err = m.DataGet(context.Background(), handle, "age", silo.GetOptions{Save: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

// S4 — Token idempotence.
func TestTokenIdempotence(t *testing.T) {
	m := newTestMachine(t)

	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	t1, err := m.DataCreateToken(handle, "secret")
	require.NoError(t, err)
	t2, err := m.DataCreateToken(handle, "secret")
	require.NoError(t, err)
	t3, err := m.DataCreateToken(handle, "other")
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.NotEqual(t, t1, t3)
	assert.NotEqual(t, "secret", t1)
}

// S5 — Late receiver.
func TestLateReceiver(t *testing.T) {
	m := newTestMachine(t)

	channel := m.ChannelOpen()
	_, resultCh, err := m.ChannelPrompt(channel, "name?", nil)
	require.NoError(t, err)

	var seen Question
	_, err = m.ChannelConnect(channel, func(q Question) {
		seen = q
	})
	require.NoError(t, err)

	assert.Equal(t, "name?", seen.Prompt)

	require.NoError(t, m.AnswerQuestion(seen.ID, "alice"))

	select {
	case answer := <-resultCh:
		assert.Equal(t, "alice", answer)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for answer")
	}
}

// S6 — Run lifecycle.
func TestRunLifecycle(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "echo_url.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$DATA_URL\"\n"), 0o755))

	m := New(Config{
		Store:       store.NewMemory(),
		Runner:      runner.New(dir),
		DataURLRoot: "http://127.0.0.1:8082",
	})
	defer m.Close()

	channel := m.ChannelOpen()
	closed := m.ChannelNotifyClosed(channel)

	result, err := m.Run(context.Background(), "jim", "echo_url.sh", nil, nil, channel, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, string(result.Stdout), "http://127.0.0.1:8082/")

	dataURL := strings.TrimSpace(string(result.Stdout))
	closedHandle := silo.Handle(dataURL[strings.LastIndex(dataURL, "/")+1:])

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("channel close notification did not fire")
	}

	_, err = m.DataGet(context.Background(), closedHandle, "anything", silo.GetOptions{Save: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosedSiloRejectsAllData(t *testing.T) {
	m := newTestMachine(t)

	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)
	require.NoError(t, m.DataPut(handle, "k", store.Value("V")))

	m.CloseSilo(handle)

	_, err = m.DataGet(context.Background(), handle, "k", silo.GetOptions{Save: true})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DataPut(handle, "k", store.Value("V")), ErrNotFound)
	_, err = m.DataCreateToken(handle, "secret")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReservedKeyRejected(t *testing.T) {
	m := newTestMachine(t)

	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	_, err = m.DataGet(context.Background(), handle, ":tokens", silo.GetOptions{Save: true})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, m.DataPut(handle, ":tokens", store.Value("x")), ErrInvalidKey)
}

func TestChannelNotifyClosedUnknownChannel(t *testing.T) {
	m := newTestMachine(t)

	done := m.ChannelNotifyClosed("nonexistent")
	select {
	case <-done:
	default:
		t.Fatal("expected already-closed notification for unknown channel")
	}
}

func TestAnswerQuestionTwiceFails(t *testing.T) {
	m := newTestMachine(t)

	channel := m.ChannelOpen()
	qid, _, err := m.ChannelPrompt(channel, "q?", nil)
	require.NoError(t, err)

	require.NoError(t, m.AnswerQuestion(qid, "a"))
	assert.ErrorIs(t, m.AnswerQuestion(qid, "b"), ErrNotFound)
}
