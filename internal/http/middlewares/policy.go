package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/policy"
	"github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/metrics"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// RequirePolicy evalúa la política de action contra el bearer del contexto y
// los parámetros de ruta. Debe ir después de RequireAuth y dentro de un
// router chi (usa sus URL params). Un deny responde 403 sin detalle.
func RequirePolicy(action string, p policy.Policy, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pc := &policy.Context{Token: GetToken(r.Context()), Params: routeParams(r)}
			d := policy.Evaluate(p, pc)
			m.PolicyDecision(action, d.Allowed)

			if !d.Allowed {
				logger.From(r.Context()).Info("policy denied",
					logger.Policy(action),
					logger.String("reason", d.Reason),
				)
				errors.WriteError(w, r, gatekeeper.ErrAuthorization)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func routeParams(r *http.Request) map[string]string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return nil
	}
	out := make(map[string]string, len(rc.URLParams.Keys))
	for i, k := range rc.URLParams.Keys {
		out[k] = rc.URLParams.Values[i]
	}
	return out
}
