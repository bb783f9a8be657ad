package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica una violación de índice único.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDatabase indica que no hay almacenamiento configurado.
	ErrNoDatabase = errors.New("no database configured")
)

// UniqueViolation es el error estructurado que devuelven los adapters cuando
// un INSERT choca con un índice único. Field es el campo de dominio
// (username, email, device), nunca el mensaje del driver.
type UniqueViolation struct {
	Field      string
	Constraint string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique violation on %s (%s)", e.Field, e.Constraint)
}

// Unwrap permite errors.Is(err, ErrConflict).
func (e *UniqueViolation) Unwrap() error { return ErrConflict }

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// ConflictField retorna el campo que violó el índice único, si aplica.
func ConflictField(err error) (string, bool) {
	var uv *UniqueViolation
	if errors.As(err, &uv) && uv.Field != "" {
		return uv.Field, true
	}
	return "", false
}
