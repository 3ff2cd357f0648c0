// Package integration exercises Store, Silo, Runner, Machine, and the
// HTTP façades together, the way a real deployment wires them: a script
// reads a missing key over DATA_URL, the Machine turns that into a
// question on a channel, a human answers it through the Public façade,
// and the script's stdout reflects the value it got back.
package integration

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/siloscript/pkg/httpapi"
	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPromptsThroughPublicFacade(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if _, err := exec.LookPath("curl"); err != nil {
		t.Skip("curl not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "ask_age.sh")
	require.NoError(t, os.WriteFile(script, []byte(
		"#!/bin/sh\ncurl -s \"$DATA_URL/age?prompt=age%3F\"\n",
	), 0o755))

	dataListener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dataURLRoot := "http://" + dataListener.Addr().String()

	m := machine.New(machine.Config{
		Store:       store.NewMemory(),
		Runner:      runner.New(dir),
		DataURLRoot: dataURLRoot,
	})
	defer m.Close()

	dataSrv := httptest.NewUnstartedServer(httpapi.NewData(m))
	dataSrv.Listener.Close()
	dataSrv.Listener = dataListener
	dataSrv.Start()
	defer dataSrv.Close()

	publicSrv := httptest.NewServer(httpapi.NewPublic(m))
	defer publicSrv.Close()

	channel := m.ChannelOpen()
	_, err = m.ChannelConnect(channel, func(q machine.Question) {
		go func() {
			resp, err := http.Post(publicSrv.URL+"/answer/"+string(q.ID), "text/plain", strings.NewReader("42"))
			if err == nil {
				resp.Body.Close()
			}
		}()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Run(ctx, "jim", "ask_age.sh", nil, nil, channel, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "42", string(result.Stdout))
}
