package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type clientRepo struct{ pool *pgxpool.Pool }

func (r *clientRepo) Create(ctx context.Context, c *repository.Client) error {
	const q = `
		INSERT INTO clients (id, name, secret_hash, redirect_uri, scope, disabled, direct_login, confidential)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	scope := c.Scope
	if scope == nil {
		scope = []string{}
	}
	err := r.pool.QueryRow(ctx, q, c.ID, c.Name, c.SecretHash, c.RedirectURI, scope,
		c.Disabled, c.DirectLogin, c.Confidential).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("pg: insert client: %w", mapError(err))
	}
	return nil
}

func (r *clientRepo) Get(ctx context.Context, id string) (*repository.Client, error) {
	const q = `
		SELECT id, name, secret_hash, redirect_uri, scope, disabled, direct_login, confidential, created_at
		FROM clients WHERE id = $1`

	var c repository.Client
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.SecretHash, &c.RedirectURI,
		&c.Scope, &c.Disabled, &c.DirectLogin, &c.Confidential, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *clientRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	const q = `UPDATE clients SET disabled = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, q, id, disabled)
	if err != nil {
		return fmt.Errorf("pg: update client: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
