// Package health expone el readiness check del servicio.
package health

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/dropDatabas3/blueprint/internal/http/dto"
	"github.com/dropDatabas3/blueprint/internal/http/helpers"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Pinger es cualquier dependencia con chequeo de salud (store, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja GET /readyz.
type Controller struct {
	checks map[string]Pinger
}

func NewController(checks map[string]Pinger) *Controller {
	return &Controller{checks: checks}
}

// Readyz responde 200 si todas las dependencias responden, 503 si no.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("health.Readyz"))

	resp := dto.HealthResponse{
		Status:     "ready",
		Version:    os.Getenv("SERVICE_VERSION"),
		Components: make(map[string]string, len(c.checks)),
	}
	for name, p := range c.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Components[name] = "down"
			log.Warn("component down", logger.String("component", name), logger.Err(err))
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, status, resp)
}
