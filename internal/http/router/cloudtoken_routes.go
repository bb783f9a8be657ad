package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/app"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/policy"
	ctrl "github.com/dropDatabas3/blueprint/internal/http/controllers/cloudtoken"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
)

// CloudTokens monta el registro de tokens push.
type CloudTokens struct{}

func (CloudTokens) Name() string { return "cloudTokens" }

func (CloudTokens) Routes(r chi.Router, ac *app.Context) {
	c := ctrl.NewController(ac.CloudTokens)
	action := policy.ActionCloudTokenRegister
	r.With(
		mw.RequireAuth(ac.Tokens),
		mw.RequirePolicy(action, ac.Actions.Get(action), ac.Metrics),
	).Post("/v1/cloud-tokens", c.Register)
}
