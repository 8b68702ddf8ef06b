package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/AnshRaj112/journal-backend/internal/logger"
)

// Authenticator turns a bearer token into a user id.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

type contextKeyUserIDType struct{}

var contextKeyUserID = &contextKeyUserIDType{}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, id)
}

// UserIDFromContext returns the id set by RequireAuth.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(contextKeyUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// otherwise makes the user id available through UserIDFromContext. It never
// touches a store.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rlog := logger.FromContext(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				rlog.Debug("auth: missing bearer token")
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := auth.Authenticate(token)
			if err != nil {
				rlog.WithError(err).Info("auth: invalid token")
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = logger.ContextWithUserID(ctx, userID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
