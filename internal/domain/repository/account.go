package repository

import (
	"context"
	"time"
)

// Campos con índice único en accounts.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// Account es una identidad persistida.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Scope        []string
	SuperUser    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsDeleted indica si la cuenta está soft-deleted.
func (a *Account) IsDeleted() bool { return a != nil && a.DeletedAt != nil }

// CreateAccountInput contiene los datos para insertar una cuenta.
// ID ya viene asignado por el service.
type CreateAccountInput struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Scope        []string
	SuperUser    bool
}

// AccountRepository define operaciones sobre cuentas.
type AccountRepository interface {
	// Create inserta la cuenta. Si username o email chocan con cualquier fila
	// (incluidas las soft-deleted) retorna *UniqueViolation.
	Create(ctx context.Context, in CreateAccountInput) (*Account, error)

	// GetByID retorna la cuenta activa. ErrNotFound si no existe o está borrada.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByLogin busca una cuenta activa por username o email.
	GetByLogin(ctx context.Context, login string) (*Account, error)

	// Resurrect limpia deleted_at de la fila soft-deleted cuyo field == value,
	// en una sola operación condicional. ErrNotFound si no hay fila borrada.
	Resurrect(ctx context.Context, field, value string) (*Account, error)

	// LiveConflict retorna el primer campo (username y luego email) en el que
	// una cuenta activa choca con los valores dados, o "" si ninguno choca.
	LiveConflict(ctx context.Context, username, email string) (string, error)

	// UpdatePasswordHash reemplaza el hash (last write wins).
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// SoftDelete marca deleted_at. ErrNotFound si no existe o ya está borrada.
	SoftDelete(ctx context.Context, id string) error
}
