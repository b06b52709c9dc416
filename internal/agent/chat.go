package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// chatSystemPrompt grounds the general-purpose chat agent.
const chatSystemPrompt = `You are a helpful, knowledgeable assistant.
Answer clearly and concisely. If you are not sure about something, say so.`

// ChatAgent is the conversational agent. It is stateless across
// invocations; all configuration is captured at construction.
type ChatAgent struct {
	g         *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewChatAgent creates the chat agent.
func NewChatAgent(g *genkit.Genkit, modelName string, logger *slog.Logger) (*ChatAgent, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatAgent{g: g, modelName: modelName, logger: logger}, nil
}

// Kind returns the agent type identifier.
func (a *ChatAgent) Kind() string { return KindChat }

// Capabilities returns the capability tags the chat agent advertises.
func (a *ChatAgent) Capabilities() []string {
	return []string{"conversation", "general_assistance", "text_generation"}
}

// Execute generates a response for the prompt. The chat agent has no
// tools; useTools is ignored.
func (a *ChatAgent) Execute(ctx context.Context, prompt string, _ bool) (*Result, error) {
	opts := []ai.GenerateOption{
		ai.WithSystem("%s", chatSystemPrompt),
		ai.WithPrompt("%s", prompt),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		a.logger.Warn("model returned empty response", "prompt_len", len(prompt))
		return nil, errors.New("model returned an empty response")
	}

	return &Result{Content: text, Metadata: map[string]any{}}, nil
}
