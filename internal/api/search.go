package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dkovalev/agentgate/internal/agent"
)

// searchPromptFormat wraps the raw query before it reaches the search
// agent, asking for a synthesized summary rather than raw results.
const searchPromptFormat = "Search for information about: %s. Provide a comprehensive summary with key findings."

// defaultMaxResults is the default for SearchRequest.MaxResults.
const defaultMaxResults = 5

// SearchRequest is the request body for web search. MaxResults is
// accepted and defaulted for wire compatibility; the result cap is
// currently fixed on the agent side.
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// SearchResponse is the web search response shape. SearchResults
// carries the agent's execution metadata on success.
type SearchResponse struct {
	Success       bool           `json:"success"`
	Query         string         `json:"query"`
	Summary       string         `json:"summary"`
	SearchResults map[string]any `json:"search_results"`
	SourcesCount  int            `json:"sources_count"`
	Error         string         `json:"error,omitempty"`
}

// CapabilitiesResponse maps agent names to their capability tags.
type CapabilitiesResponse struct {
	Success      bool                `json:"success"`
	Capabilities map[string][]string `json:"capabilities"`
	Error        string              `json:"error,omitempty"`
}

// searchHandler holds dependencies for the search endpoints.
type searchHandler struct {
	agents AgentResolver
	logger *slog.Logger
}

// search handles POST /api/search.
func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusOK, SearchResponse{
			Success:       false,
			SearchResults: map[string]any{},
			Error:         err.Error(),
		}, h.logger)
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}

	a, err := h.agents.Resolve(r.Context(), agent.KindSearch)
	if err != nil {
		h.logger.Error("resolving search agent", "error", err)
		writeJSON(w, http.StatusOK, SearchResponse{
			Success:       false,
			Query:         req.Query,
			SearchResults: map[string]any{},
			Error:         err.Error(),
		}, h.logger)
		return
	}

	result, err := a.Execute(r.Context(), fmt.Sprintf(searchPromptFormat, req.Query), true)
	if err != nil {
		h.logger.Error("search failed", "error", err, "query", req.Query)
		writeJSON(w, http.StatusOK, SearchResponse{
			Success:       false,
			Query:         req.Query,
			SearchResults: map[string]any{},
			Error:         err.Error(),
		}, h.logger)
		return
	}

	metadata := result.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Success:       true,
		Query:         req.Query,
		Summary:       result.Content,
		SearchResults: metadata,
		SourcesCount:  sourcesCount(result.Metadata),
	}, h.logger)
}

// capabilities handles GET /api/agents/capabilities. Both agents are
// resolved so the listing reflects live instances; a construction
// failure surfaces in the uniform body.
func (h *searchHandler) capabilities(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]string, 2)
	for kind, name := range map[string]string{
		agent.KindChat:   "chat_agent",
		agent.KindSearch: "search_agent",
	} {
		a, err := h.agents.Resolve(r.Context(), kind)
		if err != nil {
			h.logger.Error("resolving agent", "error", err, "agent_type", kind)
			writeJSON(w, http.StatusOK, CapabilitiesResponse{Success: false, Error: err.Error()}, h.logger)
			return
		}
		out[name] = a.Capabilities()
	}

	writeJSON(w, http.StatusOK, CapabilitiesResponse{Success: true, Capabilities: out}, h.logger)
}

// sourcesCount derives the number of consulted sources from agent
// metadata. It prefers the tool run counter, falls back to the length
// of the tools-used list, and returns 0 when neither is usable.
func sourcesCount(metadata map[string]any) int {
	switch v := metadata["tool_run_count"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	if tools, ok := metadata["tools_used"].([]string); ok {
		return len(tools)
	}
	if tools, ok := metadata["tools_used"].([]any); ok {
		return len(tools)
	}
	return 0
}
