package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

const (
	// webSearchToolName is the tool identifier exposed to the model.
	webSearchToolName = "webSearch"

	// maxSearchTurns bounds the agentic tool loop.
	maxSearchTurns = 5

	// maxToolResults caps how many hits one tool call returns.
	maxToolResults = 8

	// searchRequestTimeout bounds one SearXNG round trip.
	searchRequestTimeout = 15 * time.Second

	// maxSearchResponseSize limits the SearXNG response body (resource
	// exhaustion guard).
	maxSearchResponseSize = 2 << 20
)

// searchSystemPrompt grounds the search-and-summarize agent.
const searchSystemPrompt = `You are a research assistant with access to a web search tool.
Use the webSearch tool to find current information, then produce a
comprehensive summary of the key findings. Cite the sources you used.`

// SearchConfig contains the parameters for the search agent.
type SearchConfig struct {
	Genkit    *genkit.Genkit
	ModelName string
	// SearXNGURL is the base URL of the SearXNG instance backing the
	// webSearch tool.
	SearXNGURL string
	Logger     *slog.Logger
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// SearchAgent is the tool-augmented search agent. Construction defines
// the webSearch tool against the Genkit registry, so at most one
// SearchAgent should exist per process (the registry guarantees this).
type SearchAgent struct {
	g         *genkit.Genkit
	modelName string
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
	tool      ai.Tool
}

// webSearchInput is the tool input schema.
type webSearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query"`
}

// webSearchResult is one search hit returned to the model.
type webSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// webSearchOutput is the tool output schema.
type webSearchOutput struct {
	Results []webSearchResult `json:"results"`
}

// NewSearchAgent creates the search agent and registers its webSearch
// tool with Genkit.
func NewSearchAgent(cfg SearchConfig) (*SearchAgent, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.SearXNGURL == "" {
		return nil, errors.New("searxng URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: searchRequestTimeout}
	}

	a := &SearchAgent{
		g:         cfg.Genkit,
		modelName: cfg.ModelName,
		baseURL:   strings.TrimRight(cfg.SearXNGURL, "/"),
		client:    client,
		logger:    logger,
	}
	a.tool = genkit.DefineTool(cfg.Genkit, webSearchToolName,
		"Search the web for current information. "+
			"Returns result titles, URLs and snippets for the given query.",
		a.webSearch)

	return a, nil
}

// Kind returns the agent type identifier.
func (a *SearchAgent) Kind() string { return KindSearch }

// Capabilities returns the capability tags the search agent advertises.
func (a *SearchAgent) Capabilities() []string {
	return []string{"web_search", "summarization", "source_tracking"}
}

// Execute runs the search agent. With useTools set, the model may call
// the webSearch tool; the number of completed tool invocations is
// reported in Metadata under "tool_run_count".
func (a *SearchAgent) Execute(ctx context.Context, prompt string, useTools bool) (*Result, error) {
	opts := []ai.GenerateOption{
		ai.WithSystem("%s", searchSystemPrompt),
		ai.WithPrompt("%s", prompt),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if useTools {
		opts = append(opts, ai.WithTools(a.tool), ai.WithMaxTurns(maxSearchTurns))
	}

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		a.logger.Warn("model returned empty summary", "prompt_len", len(prompt))
		return nil, errors.New("model returned an empty response")
	}

	runs := countToolRuns(resp)
	metadata := map[string]any{"tool_run_count": runs}
	if runs > 0 {
		metadata["tools_used"] = []string{webSearchToolName}
	}

	return &Result{Content: text, Metadata: metadata}, nil
}

// searxngResponse mirrors the subset of the SearXNG JSON format the
// tool consumes.
type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// webSearch queries the configured SearXNG instance.
func (a *SearchAgent) webSearch(tctx *ai.ToolContext, input webSearchInput) (webSearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return webSearchOutput{}, errors.New("query is required")
	}
	a.logger.Info("webSearch called", "query_len", len(query))

	searchURL := a.baseURL + "/search?format=json&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(tctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return webSearchOutput{}, fmt.Errorf("building search request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return webSearchOutput{}, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return webSearchOutput{}, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseSize))
	if err != nil {
		return webSearchOutput{}, fmt.Errorf("reading search response: %w", err)
	}

	var parsed searxngResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return webSearchOutput{}, fmt.Errorf("decoding search response: %w", err)
	}

	out := webSearchOutput{}
	for _, r := range parsed.Results {
		if len(out.Results) >= maxToolResults {
			break
		}
		out.Results = append(out.Results, webSearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}

	a.logger.Debug("webSearch completed", "results", len(out.Results))
	return out, nil
}
