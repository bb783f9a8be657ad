package auth

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/http/dto"
	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/http/helpers"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Grants soportados por /v1/oauth2/token.
const (
	GrantPassword          = "password"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// Token implementa POST /v1/oauth2/token para los grants password,
// client_credentials y refresh_token. El cliente se autentica por Basic o
// con client_id/client_secret en el body.
func (c *Controller) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logFields("oauth2.Token")...)

	vals, err := helpers.ReadValues(r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	grant := vals.Get("grant_type")
	switch grant {
	case GrantPassword, GrantClientCredentials, GrantRefreshToken:
	default:
		httperrors.WriteError(w, r, httperrors.ErrUnsupportedGrant)
		return
	}

	clientID, secret, err := clientCredentials(r, "client_id", "client_secret", vals.Get)
	if err != nil {
		httperrors.WriteError(w, r, httperrors.ErrInvalidClient)
		return
	}
	cl, err := c.deps.Clients.Authenticate(ctx, clientID, secret)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	log = log.With(logger.ClientID(cl.ID), logger.String("grant_type", grant))
	origin := helpers.Origin(r, mw.ClientIP(r))

	var issued *token.Issued
	switch grant {
	case GrantPassword:
		if err := client.RequireDirectLogin(cl); err != nil {
			httperrors.WriteError(w, r, err)
			return
		}
		acc, lerr := c.deps.Accounts.Login(ctx, vals.Get("username"), vals.Get("password"))
		if lerr != nil {
			httperrors.WriteError(w, r, asGrantError(lerr))
			return
		}
		issued, err = c.deps.Tokens.Issue(ctx, cl.ID, token.AccountTarget(acc.ID), nil, token.Options{
			Refreshable: true,
			Origin:      origin,
		})

	case GrantClientCredentials:
		if !cl.Confidential {
			httperrors.WriteError(w, r, httperrors.ErrUnauthorizedClient)
			return
		}
		issued, err = c.deps.Tokens.Issue(ctx, cl.ID, token.ClientTarget(cl.ID), nil, token.Options{Origin: origin})

	case GrantRefreshToken:
		raw := vals.Get("refresh_token")
		if raw == "" {
			httperrors.WriteError(w, r, httperrors.ErrInvalidGrant.WithDetail("refresh_token es requerido"))
			return
		}
		issued, err = c.deps.Tokens.Refresh(ctx, cl.ID, raw)
		err = asGrantError(err)
	}
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	log.Info("token issued")
	w.Header().Set("Pragma", "no-cache")
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(issued, c.deps.Now()))
}

// Revoke implementa POST /v1/oauth2/logout: revoca el bearer del request
// y su par. Responde `true` aunque el token ya estuviera revocado.
func (c *Controller) Revoke(w http.ResponseWriter, r *http.Request) {
	raw, ok := mw.BearerToken(r)
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrTokenMissing)
		return
	}
	if err := c.deps.Tokens.Revoke(r.Context(), raw); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, true)
}

// asGrantError traduce credenciales o refresh inválidos al error OAuth2.
func asGrantError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gatekeeper.ErrAuthentication), errors.Is(err, gatekeeper.ErrInvalidToken):
		return httperrors.ErrInvalidGrant.WithCause(err)
	}
	return err
}
