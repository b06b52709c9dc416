package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dkovalev/agentgate/internal/agent"
	"github.com/dkovalev/agentgate/internal/auth"
	"github.com/dkovalev/agentgate/internal/store"
)

// historyPageSize caps how many records one history read returns.
const historyPageSize = 50

// CredentialStore is the user-record dependency of the auth handlers.
// Interfaces are defined here, by the consumer.
type CredentialStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error)
	UserByUsername(ctx context.Context, username string) (*store.User, error)
}

// HistoryStore persists and replays identity-scoped conversation records.
type HistoryStore interface {
	AppendMessage(ctx context.Context, msg *store.ChatMessage) error
	RecentMessages(ctx context.Context, userID string, limit int64) ([]store.ChatMessage, error)
}

// StatusStore records and lists client status checks.
type StatusStore interface {
	CreateStatusCheck(ctx context.Context, clientName string) (*store.StatusCheck, error)
	ListStatusChecks(ctx context.Context, limit int64) ([]store.StatusCheck, error)
}

// AgentResolver resolves agent type identifiers to live instances.
type AgentResolver interface {
	Resolve(ctx context.Context, kind string) (agent.Agent, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID, username string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// Pinger verifies a backing connection (readiness probe).
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Tokens      TokenService  // Required
	Users       CredentialStore // Required
	History     HistoryStore  // Required
	Status      StatusStore   // Required
	Agents      AgentResolver // Required
	Readiness   Pinger        // Optional: nil makes /ready always ready
	CORSOrigins []string      // Allowed origins ("*" allows any)
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int           // Rate limiter burst per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("token service is required")
	}
	if cfg.Users == nil {
		return nil, errors.New("credential store is required")
	}
	if cfg.History == nil {
		return nil, errors.New("history store is required")
	}
	if cfg.Status == nil {
		return nil, errors.New("status store is required")
	}
	if cfg.Agents == nil {
		return nil, errors.New("agent resolver is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &authHandler{users: cfg.Users, tokens: cfg.Tokens, logger: logger}
	ch := &chatHandler{agents: cfg.Agents, history: cfg.History, logger: logger}
	sh := &searchHandler{agents: cfg.Agents, logger: logger}
	st := &statusHandler{status: cfg.Status, logger: logger}

	requireAuth := authMiddleware(cfg.Tokens, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/{$}", st.root)

	// Authentication
	mux.HandleFunc("POST /api/auth/signup", ah.signup)
	mux.HandleFunc("POST /api/auth/login", ah.login)

	// Identity-scoped operations
	mux.Handle("POST /api/chat/motivational", requireAuth(http.HandlerFunc(ch.motivational)))
	mux.Handle("GET /api/chat/history", requireAuth(http.HandlerFunc(ch.chatHistory)))
	mux.Handle("GET /api/daily-quote", requireAuth(http.HandlerFunc(ch.dailyQuote)))

	// Open agent operations
	mux.HandleFunc("POST /api/chat", ch.chat)
	mux.HandleFunc("POST /api/search", sh.search)
	mux.HandleFunc("GET /api/agents/capabilities", sh.capabilities)

	// Status checks
	mux.HandleFunc("POST /api/status", st.create)
	mux.HandleFunc("GET /api/status", st.list)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID is before Logging so request_id is available in log
	// attributes; CORS is before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", healthHandler(logger))
	topMux.Handle("GET /ready", readinessHandler(cfg.Readiness, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
