// Package api provides the gateway's HTTP JSON API.
//
// Route groups:
//
//	POST /api/auth/signup        create account, issue token
//	POST /api/auth/login         verify credentials, issue token
//	POST /api/chat/motivational  companion chat (auth, persists history)
//	GET  /api/chat/history       recent history (auth, newest first)
//	GET  /api/daily-quote        motivational quote (auth)
//	POST /api/chat               generic agent chat (caller picks type)
//	POST /api/search             search & summarize with tool use
//	GET  /api/agents/capabilities both agents' capability sets
//	POST /api/status, GET /api/status
//	GET  /health, GET /ready     probes (outside the middleware stack)
//
// Response contract: every domain operation answers HTTP 200 with a
// {success, ..., error?} body. Agent and persistence failures are
// rendered into that body, never as transport errors. The exceptions
// are authentication failures (401/403 before any domain logic) and an
// unknown caller-supplied agent type (400).
//
// File structure:
//   - server.go: server construction, dependency interfaces, routes
//   - middleware.go: recovery, request ID, logging, CORS
//   - ratelimit.go: per-IP token bucket
//   - response.go: JSON encode/decode helpers
//   - auth.go: signup/login handlers and bearer authentication
//   - chat.go: companion chat, daily quote, history, generic chat
//   - search.go: search & summarize, agent capabilities
//   - status.go: root greeting and status checks
//   - health.go: liveness/readiness probes
package api
