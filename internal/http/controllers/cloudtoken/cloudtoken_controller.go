// Package cloudtoken expone el registro de tokens push.
package cloudtoken

import (
	"net/http"

	svc "github.com/dropDatabas3/blueprint/internal/cloudtoken"
	"github.com/dropDatabas3/blueprint/internal/http/dto"
	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
	"github.com/dropDatabas3/blueprint/internal/http/helpers"
	mw "github.com/dropDatabas3/blueprint/internal/http/middlewares"
)

// Controller maneja POST /v1/cloud-tokens.
type Controller struct {
	service svc.Service
}

func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Register inserta o reemplaza el token push del device. Responde `true`.
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var in dto.RegisterCloudTokenRequest
	if err := helpers.ReadJSON(r, &in); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if _, err := c.service.Register(r.Context(), mw.GetToken(r.Context()), in.Device, in.Token); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, true)
}
