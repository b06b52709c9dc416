package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	authpkg "github.com/dkovalev/agentgate/internal/auth"
	"github.com/dkovalev/agentgate/internal/store"
)

// claimsKey is the context key for verified identity claims.
type claimsKey struct{}

var ctxKeyClaims = claimsKey{}

// claimsFromContext retrieves the verified identity claims placed in
// the request context by authMiddleware.
func claimsFromContext(ctx context.Context) (*authpkg.Claims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(*authpkg.Claims)
	return claims, ok
}

// authMiddleware authenticates the bearer credential before any domain
// logic runs. A missing or malformed Authorization header is rejected
// with 403, an invalid or expired token with 401. Authentication is
// the only failure class that bypasses the uniform success/error body.
func authMiddleware(tokens TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusForbidden, "missing_credentials", "Not authenticated", logger)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				if errors.Is(err, authpkg.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "token_expired", "Token expired", logger)
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid token", logger)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the uniform body for signup and login.
type AuthResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// authHandler holds dependencies for the authentication endpoints.
type authHandler struct {
	users  CredentialStore
	tokens TokenService
	logger *slog.Logger
}

// signup handles POST /api/auth/signup.
func (h *authHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: "username, email and password are required"}, h.logger)
		return
	}

	hash, err := authpkg.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hashing password", "error", err)
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: "Username already exists"}, h.logger)
		case errors.Is(err, store.ErrEmailTaken):
			writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: "Email already exists"}, h.logger)
		default:
			h.logger.Error("creating user", "error", err)
			writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		}
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("issuing token", "error", err, "user_id", user.ID)
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:  true,
		Token:    token,
		Username: user.Username,
		Message:  "Account created successfully",
	}, h.logger)
}

// login handles POST /api/auth/login. Wrong username and wrong password
// produce the same message so the response does not reveal whether the
// username exists.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}

	user, err := h.users.UserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		h.logger.Error("finding user", "error", err)
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}
	if user == nil || !authpkg.CheckPassword(req.Password, user.Password) {
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: "Invalid username or password"}, h.logger)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.logger.Error("issuing token", "error", err, "user_id", user.ID)
		writeJSON(w, http.StatusOK, AuthResponse{Success: false, Message: err.Error()}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:  true,
		Token:    token,
		Username: user.Username,
		Message:  "Login successful",
	}, h.logger)
}
