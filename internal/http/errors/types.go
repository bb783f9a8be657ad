package errors

import (
	"fmt"
	"net/http"
)

// AppError es la forma estándar de un error HTTP de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // no se serializa, usado para el header
	Err        error  `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA con detalle; no muta los errores base.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithCode devuelve una COPIA con otro código (p.ej. "email_exists").
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// 400
var (
	ErrBadRequest       = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud es inválida.")
	ErrInvalidJSON      = New(http.StatusBadRequest, "INVALID_JSON", "El cuerpo de la solicitud no es un JSON válido.")
	ErrValidation       = New(http.StatusBadRequest, "VALIDATION_FAILED", "Los datos enviados no son válidos.")
	ErrInvalidGrant     = New(http.StatusBadRequest, "invalid_grant", "El grant es inválido o expiró.")
	ErrUnsupportedGrant = New(http.StatusBadRequest, "unsupported_grant_type", "grant_type no soportado.")
)

// 401
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Credenciales inválidas.")
	ErrInvalidClient      = New(http.StatusUnauthorized, "invalid_client", "Autenticación de cliente fallida.")
	ErrTokenMissing       = New(http.StatusUnauthorized, "TOKEN_MISSING", "Falta el token de acceso.")
	ErrTokenInvalid       = New(http.StatusUnauthorized, "TOKEN_INVALID", "El token es inválido o expiró.")
)

// 403
var (
	ErrForbidden          = New(http.StatusForbidden, "FORBIDDEN", "No tenés permisos para esta acción.")
	ErrUnauthorizedClient = New(http.StatusForbidden, "unauthorized_client", "El cliente no puede usar este grant.")
)

// 404, 405, 409, 429
var (
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "El recurso no existe.")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método no permitido.")
	ErrConflict         = New(http.StatusConflict, "CONFLICT", "El recurso ya existe.")
	ErrRateLimited      = New(http.StatusTooManyRequests, "RATE_LIMITED", "Demasiadas solicitudes.")
)

// 5xx
var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Ocurrió un error inesperado.")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "El servicio no está disponible.")
)
