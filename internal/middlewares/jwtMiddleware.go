package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"energynexus/internal/services"
	"energynexus/internal/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// AuthMiddleware accepts requests carrying a valid "Bearer <token>" header
// and stores the token's account id in the request context.
type AuthMiddleware struct {
	tokens services.TokenService
}

func NewAuthMiddleware(tokens services.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			utils.SendJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
			return
		}

		userID, err := a.tokens.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
			utils.SendJSONError(w, "Not authorized, token failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
