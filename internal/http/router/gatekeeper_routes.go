// Package router agrupa los módulos HTTP que se registran en la app: cada
// módulo monta sus rutas sobre el router chi raíz con los middlewares que
// necesita.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/app"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/policy"
	accountctrl "github.com/dropDatabas3/blueprint/internal/http/controllers/account"
	authctrl "github.com/dropDatabas3/blueprint/internal/http/controllers/auth"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
)

// Gatekeeper monta login web, endpoint OAuth2 y cuentas.
type Gatekeeper struct{}

func (Gatekeeper) Name() string { return "gatekeeper" }

func (Gatekeeper) Routes(r chi.Router, ac *app.Context) {
	auth := authctrl.NewController(authctrl.Deps{
		Accounts: ac.Accounts,
		Clients:  ac.Clients,
		Tokens:   ac.Tokens,
		Sessions: ac.Sessions,
	})
	accounts := accountctrl.NewController(ac.Accounts)

	limited := mw.WithRateLimit(ac.LoginLimiter, mw.IPPathRateKey)
	authed := mw.RequireAuth(ac.Tokens)
	guard := func(action string) func(http.Handler) http.Handler {
		return mw.RequirePolicy(action, ac.Actions.Get(action), ac.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.Std(mw.WithNoStore())...)
		r.Get("/login", auth.LoginForm)
		r.With(limited).Post("/login", auth.Login)
		r.Get("/logout", auth.Logout)
	})

	r.Route("/v1/oauth2", func(r chi.Router) {
		r.Use(mw.Std(mw.WithNoStore())...)
		r.With(limited).Post("/token", auth.Token)
		r.Post("/logout", auth.Revoke)
	})

	r.Route("/v1/gatekeeper/accounts", func(r chi.Router) {
		r.Use(authed)
		r.With(guard(policy.ActionAccountCreate)).Post("/", accounts.Create)
		r.With(guard(policy.ActionAccountAuthenticate)).Post("/authenticate", accounts.Authenticate)
		r.Route("/{"+policy.ParamAccountID+"}", func(r chi.Router) {
			r.With(guard(policy.ActionAccountGet)).Get("/", accounts.Get)
			r.With(guard(policy.ActionAccountDelete)).Delete("/", accounts.Delete)
			r.With(guard(policy.ActionAccountChangePassword)).Post("/password", accounts.ChangePassword)
			r.With(guard(policy.ActionAccountImpersonate)).Post("/impersonate", accounts.Impersonate)
		})
	})
}
