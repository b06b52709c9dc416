package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dkovalev/agentgate/internal/agent"
	"github.com/dkovalev/agentgate/internal/store"
)

// motivationalPrompt is the fixed persona preamble for the companion
// chat operation; the user message is appended verbatim.
const motivationalPrompt = `You are a supportive and encouraging AI companion designed to provide motivation and positivity.
Your goal is to uplift users with positive encouragement, practical advice, and daily motivation.
Be empathetic, understanding, and always maintain an optimistic yet realistic tone.
Keep responses concise but meaningful.

User message: %s`

// dailyQuotePrompt is the fixed prompt for the daily quote operation.
const dailyQuotePrompt = `Generate a single inspiring and motivational quote.
It should be uplifting, positive, and encouraging.
Format: Just the quote itself, no attribution needed. Keep it concise and impactful.`

// MotivationalChatRequest is the request body for companion chat.
type MotivationalChatRequest struct {
	Message string `json:"message"`
}

// MotivationalChatResponse is the companion chat response shape.
type MotivationalChatResponse struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// DailyQuoteResponse is the daily quote response shape.
type DailyQuoteResponse struct {
	Success   bool      `json:"success"`
	Quote     string    `json:"quote"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// HistoryResponse is the chat history response shape: at most 50
// records, newest first, scoped to the authenticated identity. An
// identity with no history gets an empty array, the key is always
// present.
type HistoryResponse struct {
	Success  bool                `json:"success"`
	Messages []store.ChatMessage `json:"messages"`
	Error    string              `json:"error,omitempty"`
}

// ChatRequest is the request body for generic agent chat. Context is
// accepted for forward compatibility and currently unused.
type ChatRequest struct {
	Message   string         `json:"message"`
	AgentType string         `json:"agent_type"`
	Context   map[string]any `json:"context,omitempty"`
}

// ChatResponse is the generic agent chat response shape.
type ChatResponse struct {
	Success      bool           `json:"success"`
	Response     string         `json:"response"`
	AgentType    string         `json:"agent_type"`
	Capabilities []string       `json:"capabilities"`
	Metadata     map[string]any `json:"metadata"`
	Error        string         `json:"error,omitempty"`
}

// chatHandler holds dependencies for the chat endpoints.
type chatHandler struct {
	agents  AgentResolver
	history HistoryStore
	logger  *slog.Logger
}

// motivational handles POST /api/chat/motivational. On success the
// exchange is persisted as a conversation record owned by the
// authenticated identity.
func (h *chatHandler) motivational(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "missing_credentials", "Not authenticated", h.logger)
		return
	}

	var req MotivationalChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusOK, MotivationalChatResponse{Success: false, Timestamp: time.Now().UTC(), Error: err.Error()}, h.logger)
		return
	}

	a, err := h.agents.Resolve(r.Context(), agent.KindChat)
	if err != nil {
		// The agent type is fixed here, so this is a server-side
		// construction failure, rendered into the uniform body.
		h.logger.Error("resolving chat agent", "error", err)
		writeJSON(w, http.StatusOK, MotivationalChatResponse{Success: false, Timestamp: time.Now().UTC(), Error: err.Error()}, h.logger)
		return
	}

	result, err := a.Execute(r.Context(), fmt.Sprintf(motivationalPrompt, req.Message), false)
	if err != nil {
		h.logger.Error("companion chat failed", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusOK, MotivationalChatResponse{Success: false, Timestamp: time.Now().UTC(), Error: err.Error()}, h.logger)
		return
	}

	record := &store.ChatMessage{
		UserID:   claims.UserID,
		Message:  req.Message,
		Response: result.Content,
	}
	if err := h.history.AppendMessage(r.Context(), record); err != nil {
		// The content was generated; flag the persistence gap instead
		// of discarding it.
		h.logger.Error("persisting conversation record", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusOK, MotivationalChatResponse{
			Success:   false,
			Response:  result.Content,
			Timestamp: time.Now().UTC(),
			Error:     fmt.Sprintf("response generated but not saved: %v", err),
		}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MotivationalChatResponse{
		Success:   true,
		Response:  result.Content,
		Timestamp: record.Timestamp,
	}, h.logger)
}

// dailyQuote handles GET /api/daily-quote.
func (h *chatHandler) dailyQuote(w http.ResponseWriter, r *http.Request) {
	a, err := h.agents.Resolve(r.Context(), agent.KindChat)
	if err != nil {
		h.logger.Error("resolving chat agent", "error", err)
		writeJSON(w, http.StatusOK, DailyQuoteResponse{Success: false, Timestamp: time.Now().UTC(), Error: err.Error()}, h.logger)
		return
	}

	result, err := a.Execute(r.Context(), dailyQuotePrompt, false)
	if err != nil {
		h.logger.Error("daily quote failed", "error", err)
		writeJSON(w, http.StatusOK, DailyQuoteResponse{Success: false, Timestamp: time.Now().UTC(), Error: err.Error()}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, DailyQuoteResponse{
		Success:   true,
		Quote:     result.Content,
		Timestamp: time.Now().UTC(),
	}, h.logger)
}

// chatHistory handles GET /api/chat/history.
func (h *chatHandler) chatHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusForbidden, "missing_credentials", "Not authenticated", h.logger)
		return
	}

	messages, err := h.history.RecentMessages(r.Context(), claims.UserID, historyPageSize)
	if err != nil {
		h.logger.Error("reading chat history", "error", err, "user_id", claims.UserID)
		writeJSON(w, http.StatusOK, HistoryResponse{Success: false, Messages: []store.ChatMessage{}, Error: err.Error()}, h.logger)
		return
	}
	if messages == nil {
		messages = []store.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Success: true, Messages: messages}, h.logger)
}

// chat handles POST /api/chat: generic agent chat with a
// caller-supplied agent type (default "chat"). An unrecognized type is
// the one domain input rejected at the transport level (400).
func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	if req.AgentType == "" {
		req.AgentType = agent.KindChat
	}

	a, err := h.agents.Resolve(r.Context(), req.AgentType)
	if err != nil {
		if errors.Is(err, agent.ErrUnknownAgentType) {
			writeError(w, http.StatusBadRequest, "unknown_agent_type", fmt.Sprintf("Unknown agent type %q", req.AgentType), h.logger)
			return
		}
		h.logger.Error("resolving agent", "error", err, "agent_type", req.AgentType)
		writeJSON(w, http.StatusOK, ChatResponse{
			Success:      false,
			AgentType:    req.AgentType,
			Capabilities: []string{},
			Metadata:     map[string]any{},
			Error:        err.Error(),
		}, h.logger)
		return
	}

	result, err := a.Execute(r.Context(), req.Message, false)
	if err != nil {
		writeJSON(w, http.StatusOK, ChatResponse{
			Success:      false,
			AgentType:    req.AgentType,
			Capabilities: a.Capabilities(),
			Metadata:     map[string]any{},
			Error:        err.Error(),
		}, h.logger)
		return
	}

	metadata := result.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Success:      true,
		Response:     result.Content,
		AgentType:    req.AgentType,
		Capabilities: a.Capabilities(),
		Metadata:     metadata,
	}, h.logger)
}
