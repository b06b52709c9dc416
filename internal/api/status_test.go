package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/agentgate/internal/store"
)

func TestCreateStatusCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/status", `{"client_name":"probe-1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var check store.StatusCheck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &check))
	assert.Equal(t, "probe-1", check.ClientName)
	assert.NotEmpty(t, check.ID)

	require.Len(t, env.status.checks, 1)
}

func TestCreateStatusCheckRequiresClientName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/status", `{}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
	assert.Empty(t, env.status.checks)
}

func TestListStatusChecks(t *testing.T) {
	env := newTestEnv(t)

	for _, name := range []string{"a", "b", "c"} {
		w := env.do(http.MethodPost, "/api/status", `{"client_name":"`+name+`"}`, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var checks []store.StatusCheck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checks))
	assert.Len(t, checks, 3)
}

func TestListStatusChecksEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Empty list, not null.
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestListStatusChecksStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.status.listErr = errors.New("collection scan failed")

	w := env.do(http.MethodGet, "/api/status", "", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

// failingPinger always reports the backing store as unreachable.
type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("no reachable servers") }

func TestReadinessFailure(t *testing.T) {
	env := newTestEnv(t)

	srv, err := NewServer(ServerConfig{
		Logger:    discardLogger(),
		Tokens:    env.tokens,
		Users:     env.users,
		History:   env.history,
		Status:    env.status,
		Agents:    &fakeResolver{},
		Readiness: failingPinger{},
	})
	require.NoError(t, err)
	env.handler = srv.Handler()

	w := env.do(http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Liveness stays up even when the store is down.
	w = env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
