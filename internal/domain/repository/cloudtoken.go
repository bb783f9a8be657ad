package repository

import (
	"context"
	"time"
)

// FieldDevice es el campo único de cloud_tokens.
const FieldDevice = "device"

// CloudToken es el token push asociado a un dispositivo.
type CloudToken struct {
	ID        string
	Device    string
	Token     string
	Owner     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CloudTokenRepository define operaciones sobre cloud tokens.
type CloudTokenRepository interface {
	// Upsert inserta o reemplaza (token, owner) para el device.
	Upsert(ctx context.Context, ct *CloudToken) (*CloudToken, error)

	// GetByDevice retorna el registro del device. ErrNotFound si no existe.
	GetByDevice(ctx context.Context, device string) (*CloudToken, error)
}
