package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/logging"
)

// UsernameLookup resolves a user's profile username. An empty result means
// the user has no profile yet.
type UsernameLookup interface {
	Username(ctx context.Context, userID string) (string, error)
}

// Middleware guards routes that need a signed-in caller.
type Middleware struct {
	verifier  Verifier
	usernames UsernameLookup
	logger    *zap.Logger
}

// NewMiddleware builds the guard. usernames may be nil.
func NewMiddleware(verifier Verifier, usernames UsernameLookup, logger *zap.Logger) *Middleware {
	return &Middleware{verifier: verifier, usernames: usernames, logger: logging.OrNop(logger)}
}

// RequireUser validates the bearer token and injects the identity into the
// request context. A missing header, a non-bearer scheme or a rejected token
// answers 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		id, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			m.logger.Error("auth: token verification failed", zap.Error(err))
			writeAuthError(w, http.StatusServiceUnavailable, "Authentication service unavailable")
			return
		}

		ctx := WithIdentity(r.Context(), id)
		if m.usernames != nil {
			name, err := m.usernames.Username(ctx, id.UserID)
			if err != nil {
				m.logger.Warn("auth: username lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
			} else if name != "" {
				ctx = WithUsername(ctx, name)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
