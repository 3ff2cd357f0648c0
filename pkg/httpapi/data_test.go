package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	m := machine.New(machine.Config{
		Store:       store.NewMemory(),
		Runner:      runner.New(t.TempDir()),
		DataURLRoot: "http://127.0.0.1:8082",
	})
	t.Cleanup(m.Close)
	return m
}

func TestDataPutThenGet(t *testing.T) {
	m := newTestMachine(t)
	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	srv := httptest.NewServer(NewData(m))
	defer srv.Close()

	putReq, _ := http.NewRequest(http.MethodPut, srv.URL+"/"+string(handle)+"/k", strings.NewReader("V"))
	resp, err := http.DefaultClient.Do(putReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(srv.URL + "/" + string(handle) + "/k")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestDataGetUnknownHandleIs404(t *testing.T) {
	m := newTestMachine(t)
	srv := httptest.NewServer(NewData(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/nope/k")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDataGetReservedKeyIs400(t *testing.T) {
	m := newTestMachine(t)
	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	srv := httptest.NewServer(NewData(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/" + string(handle) + "/:tokens")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDataCreateToken(t *testing.T) {
	m := newTestMachine(t)
	handle, err := m.MakeSilo("jim", "s", "")
	require.NoError(t, err)

	srv := httptest.NewServer(NewData(m))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/"+string(handle)+"?value=secret", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
