package httpmw

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/logger"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// Auth requires "Authorization: Bearer <token>" and stores the resolved
// identity in the request context.
func Auth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			who, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					logger.FromContext(r.Context()).Error("auth resolve failed", "err", err)
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				unauthorized(w, "invalid or expired token")
				return
			}

			l := logger.FromContext(r.Context()).With("user_id", who.ID)
			ctx := WithIdentity(r.Context(), who)
			ctx = logger.WithContext(ctx, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])

	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": msg}})
}

func WithIdentity(ctx context.Context, who domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, who)
}

// IdentityFromCtx returns the caller set by Auth.
func IdentityFromCtx(ctx context.Context) (domain.Identity, bool) {
	who, ok := ctx.Value(ctxKeyIdentity).(domain.Identity)
	return who, ok
}
