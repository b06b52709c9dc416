package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/agentgate/internal/auth"
)

func decodeAuthResponse(t *testing.T, body []byte) AuthResponse {
	t.Helper()
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	token := env.signup(t, "alice")
	assert.NotEmpty(t, token)

	w := env.do(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"hunter22"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAuthResponse(t, w.Body.Bytes())
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "Login successful", resp.Message)
}

func TestSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	w := env.do(http.MethodPost, "/api/auth/signup",
		`{"username":"alice","email":"other@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAuthResponse(t, w.Body.Bytes())
	assert.False(t, resp.Success)
	assert.Equal(t, "Username already exists", resp.Message)
	assert.Empty(t, resp.Token)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	w := env.do(http.MethodPost, "/api/auth/signup",
		`{"username":"bob","email":"alice@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAuthResponse(t, w.Body.Bytes())
	assert.False(t, resp.Success)
	assert.Equal(t, "Email already exists", resp.Message)
}

func TestSignupMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/signup", `{"username":"alice"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAuthResponse(t, w.Body.Bytes())
	assert.False(t, resp.Success)
}

func TestLoginWrongCredentialsAreOpaque(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")

	// Wrong password and unknown username must produce the same body.
	w1 := env.do(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong"}`, "")
	require.Equal(t, http.StatusOK, w1.Code)
	resp1 := decodeAuthResponse(t, w1.Body.Bytes())

	w2 := env.do(http.MethodPost, "/api/auth/login", `{"username":"nobody","password":"wrong"}`, "")
	require.Equal(t, http.StatusOK, w2.Code)
	resp2 := decodeAuthResponse(t, w2.Body.Bytes())

	assert.False(t, resp1.Success)
	assert.False(t, resp2.Success)
	assert.Equal(t, "Invalid username or password", resp1.Message)
	assert.Equal(t, resp1.Message, resp2.Message)
}

func TestProtectedRouteMissingCredentials(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/chat/history", "", "")
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "missing_credentials", resp.Error)
}

func TestProtectedRouteMalformedHeader(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	r.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectedRouteInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/chat/history", "", "not-a-real-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_token", resp.Error)
}

func TestProtectedRouteExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	expired := auth.NewService(testSigningSecret, -time.Minute)
	token, err := expired.Issue("user-1", "alice")
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/api/chat/history", "", token)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "token_expired", resp.Error)
}

func TestAuthRunsBeforeDomainLogic(t *testing.T) {
	env := newTestEnv(t)

	// Without credentials the agent must never run.
	w := env.do(http.MethodPost, "/api/chat/motivational", `{"message":"hi"}`, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, env.chat.prompts)
	assert.Empty(t, env.history.records)
}
