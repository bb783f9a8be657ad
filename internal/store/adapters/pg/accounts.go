package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type accountRepo struct{ pool *pgxpool.Pool }

const accountColumns = `id, username, email, password_hash, scope, super_user, created_at, updated_at, deleted_at`

func scanAccount(row pgx.Row) (*repository.Account, error) {
	var a repository.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Scope,
		&a.SuperUser, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepo) Create(ctx context.Context, in repository.CreateAccountInput) (*repository.Account, error) {
	const q = `
		INSERT INTO accounts (id, username, email, password_hash, scope, super_user)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + accountColumns

	scope := in.Scope
	if scope == nil {
		scope = []string{}
	}
	a, err := scanAccount(r.pool.QueryRow(ctx, q, in.ID, in.Username, in.Email, in.PasswordHash, scope, in.SuperUser))
	if err != nil {
		return nil, fmt.Errorf("pg: insert account: %w", mapError(err))
	}
	return a, nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND deleted_at IS NULL`

	a, err := scanAccount(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *accountRepo) GetByLogin(ctx context.Context, login string) (*repository.Account, error) {
	const q = `
		SELECT ` + accountColumns + ` FROM accounts
		WHERE (username = $1 OR lower(email) = lower($1)) AND deleted_at IS NULL
		LIMIT 1`

	a, err := scanAccount(r.pool.QueryRow(ctx, q, login))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *accountRepo) Resurrect(ctx context.Context, field, value string) (*repository.Account, error) {
	// El nombre de columna sale de una lista cerrada, nunca del input.
	var q string
	switch field {
	case repository.FieldUsername:
		q = `UPDATE accounts SET deleted_at = NULL, updated_at = now()
			WHERE username = $1 AND deleted_at IS NOT NULL RETURNING ` + accountColumns
	case repository.FieldEmail:
		q = `UPDATE accounts SET deleted_at = NULL, updated_at = now()
			WHERE email = $1 AND deleted_at IS NOT NULL RETURNING ` + accountColumns
	default:
		return nil, repository.ErrInvalidInput
	}

	a, err := scanAccount(r.pool.QueryRow(ctx, q, value))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *accountRepo) LiveConflict(ctx context.Context, username, email string) (string, error) {
	const q = `
		SELECT CASE
			WHEN EXISTS (SELECT 1 FROM accounts WHERE username = $1 AND deleted_at IS NULL) THEN 'username'
			WHEN EXISTS (SELECT 1 FROM accounts WHERE email = $2 AND deleted_at IS NULL) THEN 'email'
			ELSE ''
		END`

	var field string
	if err := r.pool.QueryRow(ctx, q, username, email).Scan(&field); err != nil {
		return "", fmt.Errorf("pg: live conflict: %w", err)
	}
	return field, nil
}

func (r *accountRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const q = `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, q, id, hash)
	if err != nil {
		return fmt.Errorf("pg: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accountRepo) SoftDelete(ctx context.Context, id string) error {
	const q = `UPDATE accounts SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("pg: soft delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
