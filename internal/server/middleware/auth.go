package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/schoolcms/schoolcms/internal/service"
)

type contextKeyAuth string

// IdentityKey is the context key for the authenticated admin identity.
const IdentityKey contextKeyAuth = "auth_identity"

// TokenVerifier verifies bearer tokens. *service.TokenService implements it.
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// Authenticate returns an HTTP middleware that requires a valid admin bearer
// token in the Authorization header.
//
// A request without a token is rejected with 401 and the verifier is never
// called. A token that is malformed, badly signed or expired is rejected with
// 403. On success the admin identity is attached to the request context.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusForbidden, "token invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, claims.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the authenticated identity from the context. The
// boolean is false for unauthenticated requests.
func GetIdentity(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(service.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeError writes the same JSON error body the handlers use. It lives here
// to avoid an import cycle with the handler package.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{status, message})
}
