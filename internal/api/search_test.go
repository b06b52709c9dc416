package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/agentgate/internal/agent"
)

func TestSearchSuccess(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", `{"query":"solar eclipses"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "solar eclipses", resp.Query)
	assert.Equal(t, "search summary", resp.Summary)
	assert.Equal(t, 3, resp.SourcesCount)
	assert.Empty(t, resp.Error)

	// The agent's execution metadata is passed through as an object.
	assert.Equal(t, float64(3), resp.SearchResults["tool_run_count"])
	assert.Equal(t, []any{"webSearch"}, resp.SearchResults["tools_used"])

	// The query is wrapped in the summary prompt and tools are enabled.
	require.Len(t, env.search.prompts, 1)
	assert.Contains(t, env.search.prompts[0], "solar eclipses")
	assert.Contains(t, env.search.prompts[0], "comprehensive summary")
	assert.True(t, env.search.useTools[0])
}

func TestSearchAgentFailure(t *testing.T) {
	env := newTestEnv(t)
	env.search.err = errors.New("searxng unreachable")

	w := env.do(http.MethodPost, "/api/search", `{"query":"anything"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "anything", resp.Query)
	assert.Contains(t, resp.Error, "searxng unreachable")
	assert.Zero(t, resp.SourcesCount)
	assert.Empty(t, resp.SearchResults)
}

func TestSearchAcceptsMaxResults(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/search", `{"query":"tides","max_results":10}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tides", resp.Query)
}

func TestSearchNoToolMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.search.result = &agent.Result{Content: "answered from memory"}

	w := env.do(http.MethodPost, "/api/search", `{"query":"trivia"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Zero(t, resp.SourcesCount)

	// Nil agent metadata still yields an object, not null.
	assert.Contains(t, w.Body.String(), `"search_results":{}`)
}

func TestCapabilitiesListing(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/agents/capabilities", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp CapabilitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	// Each agent maps to a plain capability array.
	assert.Equal(t, env.chat.caps, resp.Capabilities["chat_agent"])
	assert.Equal(t, env.search.caps, resp.Capabilities["search_agent"])
	assert.Len(t, resp.Capabilities, 2)
}

func TestCapabilitiesResolverFailure(t *testing.T) {
	env := newTestEnv(t)

	srv, err := NewServer(ServerConfig{
		Logger:  discardLogger(),
		Tokens:  env.tokens,
		Users:   env.users,
		History: env.history,
		Status:  env.status,
		Agents:  &fakeResolver{resolveErr: errors.New("model init failed")},
	})
	require.NoError(t, err)
	env.handler = srv.Handler()

	w := env.do(http.MethodGet, "/api/agents/capabilities", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp CapabilitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "model init failed")
}

func TestSourcesCount(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		want     int
	}{
		{"nil metadata", nil, 0},
		{"empty metadata", map[string]any{}, 0},
		{"int count", map[string]any{"tool_run_count": 4}, 4},
		{"int64 count", map[string]any{"tool_run_count": int64(2)}, 2},
		{"float count after JSON round trip", map[string]any{"tool_run_count": float64(5)}, 5},
		{"non-numeric count ignored", map[string]any{"tool_run_count": "three"}, 0},
		{"fallback to tools_used strings", map[string]any{"tools_used": []string{"webSearch"}}, 1},
		{"fallback to tools_used any", map[string]any{"tools_used": []any{"webSearch", "fetch"}}, 2},
		{"count wins over tools_used", map[string]any{"tool_run_count": 7, "tools_used": []string{"webSearch"}}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sourcesCount(tt.metadata))
		})
	}
}
