package auth

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/http/dto"
	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/http/helpers"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
	"github.com/dropDatabas3/blueprint/internal/http/session"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

var loginForm = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="{{.Action}}">
  <input type="hidden" name="client" value="{{.Client}}">
  <label>Username <input name="username" autocomplete="username"></label>
  <label>Password <input name="password" type="password" autocomplete="current-password"></label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>
`))

// LoginForm renderiza el formulario de login. ?client= precarga el cliente.
func (c *Controller) LoginForm(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logFields("auth.LoginForm")...)

	var buf bytes.Buffer
	if err := loginForm.Execute(&buf, struct{ Action, Client string }{LoginPath, r.URL.Query().Get("client")}); err != nil {
		log.Error("login form render failed", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("login form write failed", logger.Err(err))
	}
}

// Login autentica cliente y cuenta, emite un par de tokens y deja la cookie
// de sesión. Cualquier falla redirige al formulario sin decir por qué.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logFields("auth.Login")...)

	fail := func(reason string, err error) {
		log.Info("login rejected", logger.String("reason", reason), logger.Err(err))
		http.Redirect(w, r, LoginPath, http.StatusFound)
	}

	vals, err := helpers.ReadValues(r)
	if err != nil {
		fail("bad_request", err)
		return
	}
	clientID, secret, err := clientCredentials(r, "client", "client_secret", vals.Get)
	if err != nil {
		fail("missing_client", err)
		return
	}
	cl, err := c.deps.Clients.Authenticate(ctx, clientID, secret)
	if err != nil {
		fail("invalid_client", err)
		return
	}
	if err := client.RequireDirectLogin(cl); err != nil {
		fail("direct_login", err)
		return
	}
	acc, err := c.deps.Accounts.Login(ctx, vals.Get("username"), vals.Get("password"))
	if err != nil {
		fail("credentials", err)
		return
	}

	issued, err := c.deps.Tokens.Issue(ctx, cl.ID, token.AccountTarget(acc.ID), nil, token.Options{
		Refreshable: true,
		Origin:      helpers.Origin(r, mw.ClientIP(r)),
	})
	if err != nil {
		fail("issue", err)
		return
	}
	if err := c.deps.Sessions.Issue(w, session.Session{
		AccountID: acc.ID,
		ClientID:  cl.ID,
		AccessID:  issued.AccessID,
		RefreshID: issued.RefreshID,
	}); err != nil {
		// el token ya existe; sin cookie el logout web no lo alcanza
		log.Warn("session cookie not issued", logger.Err(err))
	}

	log.Info("login ok", logger.AccountID(acc.ID), logger.ClientID(cl.ID))
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(issued, c.deps.Now()))
}

// Logout revoca el par de la sesión web, borra la cookie y vuelve al
// formulario. Sin sesión sólo redirige.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, err := c.deps.Sessions.Read(r)
	if err == nil {
		if err := c.deps.Tokens.RevokeIDs(ctx, s.AccessID, s.RefreshID); err != nil {
			logger.From(ctx).Warn("session revoke failed", append(logFields("auth.Logout"), logger.Err(err))...)
		}
	}
	c.deps.Sessions.Clear(w)
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
