// Package account expone las operaciones de cuentas del gatekeeper bajo
// /v1/gatekeeper/accounts. La autorización la resuelve RequirePolicy antes
// de llegar acá; los handlers sólo asumen que hay un bearer verificado.
package account

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	svc "github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/policy"
	"github.com/dropDatabas3/blueprint/internal/http/dto"
	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/http/helpers"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Controller maneja los endpoints de cuentas.
type Controller struct {
	service svc.Service
	now     func() time.Time
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service, now: time.Now}
}

// accountID resuelve el parámetro de ruta; "me" es la cuenta del bearer.
func accountID(r *http.Request) string {
	id := chi.URLParam(r, policy.ParamAccountID)
	if id == policy.Me {
		return mw.GetToken(r.Context()).AccountID()
	}
	return id
}

// Create da de alta una cuenta. Con ?login=true además emite un token
// refrescable a nombre del cliente del caller.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("account.Create"))

	var req dto.CreateAccountRequest
	if err := helpers.ReadJSON(r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	login, _ := strconv.ParseBool(r.URL.Query().Get("login"))
	tc := mw.GetToken(ctx)

	res, err := c.service.Create(ctx, svc.CreateInput{
		ID:       req.Account.ID,
		Username: req.Account.Username,
		Email:    req.Account.Email,
		Password: req.Account.Password,
		Scope:    req.Account.Scope,
	}, svc.CreateOptions{
		Login:    login,
		ClientID: tc.ClientID(),
		Origin:   helpers.Origin(r, mw.ClientIP(r)),
		Caller:   tc,
	})
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	log.Info("account created",
		logger.AccountID(res.Account.ID),
		logger.Bool("resurrected", res.Resurrected),
		logger.Bool("login", login),
	)
	helpers.WriteJSON(w, http.StatusOK, dto.AccountResponse{
		Account: dto.NewAccount(res.Account),
		Token:   dto.NewTokenResponse(res.Token, c.now()),
	})
}

// Get retorna una cuenta viva.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := c.service.Get(r.Context(), accountID(r))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AccountResponse{Account: dto.NewAccount(acc)})
}

// Delete hace la baja lógica y revoca los tokens de la cuenta.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Delete(r.Context(), accountID(r)); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, true)
}

// ChangePassword cambia la contraseña validando la actual. Los tokens
// vigentes siguen vivos.
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := helpers.ReadJSON(r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.ChangePassword(r.Context(), accountID(r), req.Password.Current, req.Password.New); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, true)
}

// Authenticate re-valida la contraseña de la cuenta del bearer.
func (c *Controller) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthenticateRequest
	if err := helpers.ReadJSON(r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	tc := mw.GetToken(r.Context())
	if !tc.IsUserToken() {
		httperrors.WriteError(w, r, gatekeeper.ErrAuthorization)
		return
	}
	ok, err := c.service.Authenticate(r.Context(), tc.AccountID(), req.Authenticate.Password)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ok)
}

// Impersonate emite un token de sesión de impersonación sobre la cuenta.
func (c *Controller) Impersonate(w http.ResponseWriter, r *http.Request) {
	out, err := c.service.Impersonate(r.Context(), mw.GetToken(r.Context()), accountID(r))
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewTokenResponse(out, c.now()))
}
