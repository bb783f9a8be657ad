package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/app"
	ctrl "github.com/dropDatabas3/blueprint/internal/http/controllers/health"
)

// Health monta /readyz y /metrics.
type Health struct{}

func (Health) Name() string { return "health" }

func (Health) Routes(r chi.Router, ac *app.Context) {
	c := ctrl.NewController(map[string]ctrl.Pinger{
		"store": ac.Store,
		"cache": ac.Cache,
	})
	r.Get("/readyz", c.Readyz)
	r.Method("GET", "/metrics", ac.Metrics.Handler())
}

// Default retorna los módulos del servicio en orden de registro.
func Default() []app.Module {
	return []app.Module{Health{}, Gatekeeper{}, CloudTokens{}}
}
