// Package agent provides the gateway's agent capabilities: a
// conversational chat agent and a tool-augmented search agent behind a
// common interface, plus a process-wide registry that lazily constructs
// and caches one live instance per agent type.
package agent

import (
	"context"

	"github.com/firebase/genkit/go/ai"
)

// Recognized agent type identifiers.
const (
	KindChat   = "chat"
	KindSearch = "search"
)

// Result is the outcome of one agent invocation. Metadata carries
// free-form execution details; search runs record the number of tool
// invocations under "tool_run_count".
type Result struct {
	Content  string
	Metadata map[string]any
}

// Agent is a capability that turns a prompt into a result.
// Implementations must be safe for concurrent use: one instance per
// type is shared across all in-flight requests.
type Agent interface {
	// Kind returns the agent type identifier ("chat", "search").
	Kind() string

	// Capabilities returns the capability tags this agent advertises.
	Capabilities() []string

	// Execute runs the agent on a prompt. useTools enables tool use
	// for agents that support it; others ignore the flag.
	Execute(ctx context.Context, prompt string, useTools bool) (*Result, error)
}

// KnownKind reports whether kind is a recognized agent type.
func KnownKind(kind string) bool {
	switch kind {
	case KindChat, KindSearch:
		return true
	}
	return false
}

// countToolRuns counts completed tool invocations in a model response
// by scanning the request history for tool response parts.
func countToolRuns(resp *ai.ModelResponse) int {
	if resp == nil || resp.Request == nil {
		return 0
	}
	n := 0
	for _, msg := range resp.Request.Messages {
		if msg == nil {
			continue
		}
		for _, part := range msg.Content {
			if part != nil && part.ToolResponse != nil {
				n++
			}
		}
	}
	return n
}
