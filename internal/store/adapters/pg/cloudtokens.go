package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type cloudTokenRepo struct{ pool *pgxpool.Pool }

const cloudTokenColumns = `id, device, token, owner, created_at, updated_at`

func (r *cloudTokenRepo) Upsert(ctx context.Context, ct *repository.CloudToken) (*repository.CloudToken, error) {
	const q = `
		INSERT INTO cloud_tokens (id, device, token, owner)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device) DO UPDATE
		SET token = EXCLUDED.token, owner = EXCLUDED.owner, updated_at = now()
		RETURNING ` + cloudTokenColumns

	id := ct.ID
	if id == "" {
		id = uuid.NewString()
	}
	var out repository.CloudToken
	err := r.pool.QueryRow(ctx, q, id, ct.Device, ct.Token, ct.Owner).
		Scan(&out.ID, &out.Device, &out.Token, &out.Owner, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("pg: upsert cloud token: %w", mapError(err))
	}
	return &out, nil
}

func (r *cloudTokenRepo) GetByDevice(ctx context.Context, device string) (*repository.CloudToken, error) {
	const q = `SELECT ` + cloudTokenColumns + ` FROM cloud_tokens WHERE device = $1`

	var out repository.CloudToken
	err := r.pool.QueryRow(ctx, q, device).
		Scan(&out.ID, &out.Device, &out.Token, &out.Owner, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &out, nil
}
