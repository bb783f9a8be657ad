// Package auth expone el login web (/auth) y el endpoint OAuth2 de tokens
// (/v1/oauth2).
package auth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/http/session"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// LoginPath es la ruta del formulario; todas las fallas del login web
// redirigen acá.
const LoginPath = "/auth/login"

// Deps son las dependencias del controller.
type Deps struct {
	Accounts account.Service
	Clients  client.Service
	Tokens   token.Service
	Sessions *session.Manager
	Now      func() time.Time
}

// Controller maneja /auth/* y /v1/oauth2/*.
type Controller struct {
	deps Deps
}

func NewController(deps Deps) *Controller {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps}
}

var errMissingClient = errors.New("auth: missing client credentials")

// clientCredentials lee las credenciales del cliente de Basic auth o, si
// no hay, de los campos del body.
func clientCredentials(r *http.Request, idField, secretField string, get func(string) string) (string, string, error) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret, nil
	}
	id := get(idField)
	if id == "" {
		return "", "", errMissingClient
	}
	return id, get(secretField), nil
}

func logFields(op string) []zap.Field {
	return []zap.Field{logger.Layer("controller"), logger.Op(op)}
}
