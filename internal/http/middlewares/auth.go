package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Verifier resuelve un bearer token; token.Service lo cumple.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*token.Context, error)
}

// BearerToken extrae el valor de "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(ah[7:])
	return raw, raw != ""
}

// RequireAuth verifica el bearer token y guarda su contexto. Sin token o con
// uno inválido responde 401.
func RequireAuth(v Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				errors.WriteError(w, r, errors.ErrTokenMissing)
				return
			}
			tc, err := v.Verify(r.Context(), raw)
			if err != nil {
				errors.WriteError(w, r, err)
				return
			}

			log := logger.From(r.Context()).With(logger.ClientID(tc.ClientID()))
			if id := tc.AccountID(); id != "" {
				log = log.With(logger.AccountID(id))
			}
			ctx := logger.ToContext(WithToken(r.Context(), tc), log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
