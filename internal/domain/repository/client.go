package repository

import (
	"context"
	"time"
)

// Client es un cliente OAuth2 registrado.
type Client struct {
	ID           string
	Name         string
	SecretHash   string // bcrypt
	RedirectURI  string
	Scope        []string
	Disabled     bool
	DirectLogin  bool
	Confidential bool
	CreatedAt    time.Time
}

// ClientRepository define operaciones sobre clientes.
type ClientRepository interface {
	// Create inserta un cliente. *UniqueViolation si el id ya existe.
	Create(ctx context.Context, c *Client) error

	// Get retorna el cliente (habilitado o no). ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*Client, error)

	// SetDisabled habilita o deshabilita el cliente. ErrNotFound si no existe.
	SetDisabled(ctx context.Context, id string, disabled bool) error
}
