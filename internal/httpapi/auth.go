package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dinequeue/internal/store"
)

type authContextKey struct{}

func AuthMiddleware(sessions store.SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		sessionID := sessionIDFromRequest(r)
		if sessionID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		session, err := sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (store.Session, bool) {
	session, ok := ctx.Value(authContextKey{}).(store.Session)
	return session, ok
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return false
	}
	if session.Role != store.RoleAdmin {
		writeError(w, http.StatusForbidden, "access_denied", "admin role required")
		return false
	}
	return true
}

func sessionIDFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// The queue board and health probes stay open; everything that mutates state
// requires a session.
func isPublicEndpoint(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return true
	case "/api/queue":
		return r.Method == http.MethodGet
	default:
		return r.Method == http.MethodOptions
	}
}
