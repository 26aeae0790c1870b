package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	userEmailKey contextKey = "userEmail"
)

// UserIDFromContext returns the authenticated account id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// requireAuth resolves a bearer session token to an account id and stores it
// on the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeMessage(w, http.StatusUnauthorized, false, "Authentication token is required")
			return
		}

		claims, err := h.jwt.VerifySession(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, false, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.ID)
		ctx = context.WithValue(ctx, userEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireApiKey authenticates a request by API key, from either the
// X-Api-Key header or a bearer token.
func (h *Handler) requireApiKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Api-Key")
		if key == "" {
			key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if key == "" {
			writeMessage(w, http.StatusUnauthorized, false, "API key is required")
			return
		}

		row, err := h.apiKeys.ValidateKey(r.Context(), key)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, false, "Invalid or inactive API key")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, row.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
