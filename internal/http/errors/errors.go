// Package errors define el catálogo de errores HTTP y la traducción de los
// errores de dominio del gatekeeper a status y código.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON. Los 5xx se loguean con su causa; al
// cliente nunca le llega la causa.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	if appErr.HTTPStatus >= 500 && r != nil {
		logger.From(r.Context()).Error("request failed",
			logger.Layer("http"),
			logger.String("code", appErr.Code),
			logger.Err(appErr.Err),
		)
	}
	if appErr.Code == ErrTokenInvalid.Code || appErr.Code == ErrTokenMissing.Code {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// FromError convierte cualquier error en un AppError. Los errores de dominio
// conocidos tienen status propio; el resto es 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if ve, ok := gatekeeper.AsValidation(err); ok {
		return ErrValidation.WithCode(ve.Code).WithDetail(ve.Message).WithCause(err)
	}
	if ce, ok := gatekeeper.AsConflict(err); ok {
		return ErrConflict.WithCode(ce.Code()).WithCause(err)
	}

	switch {
	case stderrors.Is(err, gatekeeper.ErrAuthentication):
		return ErrInvalidCredentials.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrAuthorization):
		// sin detalle de qué rama de la política falló
		return ErrForbidden.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrInvalidToken):
		return ErrTokenInvalid.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrInvalidClient):
		return ErrInvalidClient.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrDirectLoginNotAllowed):
		return ErrUnauthorizedClient.WithCause(err)
	case stderrors.Is(err, gatekeeper.ErrInvalidTarget):
		return ErrInvalidGrant.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}
