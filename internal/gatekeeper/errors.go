// Package gatekeeper agrupa el núcleo de autorización: tokens opacos, motor
// de políticas, cuentas y clientes. Este paquete raíz solo define los errores
// de dominio y los scopes conocidos; cada subpaquete implementa un servicio.
package gatekeeper

import (
	"errors"
	"fmt"
)

// Errores de dominio. La capa HTTP los traduce a status y código.
var (
	// ErrAuthentication: credenciales incorrectas (password, secret).
	ErrAuthentication = errors.New("authentication failed")

	// ErrAuthorization: la política evaluada negó el acceso.
	ErrAuthorization = errors.New("forbidden")

	// ErrNotFound: el recurso no existe o está soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken: token desconocido, vencido, revocado o malformado.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidTarget: el sujeto del token no existe o está deshabilitado.
	ErrInvalidTarget = errors.New("invalid token target")

	// ErrInvalidClient: cliente desconocido, deshabilitado o secret incorrecto.
	ErrInvalidClient = errors.New("invalid client")

	// ErrDirectLoginNotAllowed: el cliente no puede usar el grant password.
	ErrDirectLoginNotAllowed = errors.New("direct login not allowed for client")
)

// ValidationError describe un input rechazado. Code es estable y se expone
// tal cual al cliente (p.ej. "invalid_email", "id_not_allowed").
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Code)
	}
	return "validation failed: " + e.Code
}

// Invalid es un atajo para construir un *ValidationError.
func Invalid(field, code, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: msg}
}

// ConflictError indica que un campo único ya está en uso por una cuenta viva.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Code() }

// Code retorna "<field>_exists".
func (e *ConflictError) Code() string { return e.Field + "_exists" }

// AsValidation extrae un *ValidationError de la cadena.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AsConflict extrae un *ConflictError de la cadena.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}
