package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

const tokenColumns = `id, hash, kind, account_id, client_id, scope, payload, origin, refreshable,
	pair_id, issued_at, expires_at, revoked_at, consumed_at`

func scanToken(row pgx.Row) (*repository.Token, error) {
	var t repository.Token
	var kind string
	if err := row.Scan(&t.ID, &t.Hash, &kind, &t.AccountID, &t.ClientID, &t.Scope, &t.Payload,
		&t.Origin, &t.Refreshable, &t.PairID, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt, &t.ConsumedAt); err != nil {
		return nil, err
	}
	t.Kind = repository.TokenKind(kind)
	return &t, nil
}

func (r *tokenRepo) Create(ctx context.Context, tokens ...*repository.Token) error {
	const q = `
		INSERT INTO tokens (id, hash, kind, account_id, client_id, scope, payload, origin,
			refreshable, pair_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tokens {
		payload := t.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		scope := t.Scope
		if scope == nil {
			scope = []string{}
		}
		if _, err := tx.Exec(ctx, q, t.ID, t.Hash, string(t.Kind), t.AccountID, t.ClientID, scope,
			payload, t.Origin, t.Refreshable, t.PairID, t.IssuedAt, t.ExpiresAt); err != nil {
			return fmt.Errorf("pg: insert token: %w", mapError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit tx: %w", err)
	}
	return nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*repository.Token, error) {
	q := `SELECT ` + tokenColumns + ` FROM tokens WHERE hash = $1`

	t, err := scanToken(r.pool.QueryRow(ctx, q, hash))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *tokenRepo) Consume(ctx context.Context, hash string, now time.Time) (*repository.Token, error) {
	// find-and-update en una sola sentencia: dos redenciones concurrentes no
	// pueden ganar ambas.
	q := `
		UPDATE tokens SET consumed_at = $2
		WHERE hash = $1 AND kind = 'refresh'
		  AND consumed_at IS NULL AND revoked_at IS NULL AND expires_at > $2
		RETURNING ` + tokenColumns

	t, err := scanToken(r.pool.QueryRow(ctx, q, hash, now))
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

func (r *tokenRepo) Release(ctx context.Context, hash string, consumedAt time.Time) error {
	const q = `UPDATE tokens SET consumed_at = NULL WHERE hash = $1 AND consumed_at = $2`

	tag, err := r.pool.Exec(ctx, q, hash, consumedAt)
	if err != nil {
		return fmt.Errorf("pg: release token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *tokenRepo) Revoke(ctx context.Context, now time.Time, ids ...string) ([]string, error) {
	const q = `UPDATE tokens SET revoked_at = $2 WHERE id = ANY($1) AND revoked_at IS NULL RETURNING hash`
	if len(ids) == 0 {
		return nil, nil
	}
	return r.collectHashes(ctx, q, ids, now)
}

func (r *tokenRepo) RevokeByAccount(ctx context.Context, accountID string, now time.Time) ([]string, error) {
	const q = `UPDATE tokens SET revoked_at = $2 WHERE account_id = $1 AND revoked_at IS NULL RETURNING hash`
	return r.collectHashes(ctx, q, accountID, now)
}

func (r *tokenRepo) collectHashes(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: revoke tokens: %w", err)
	}
	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pg: revoke tokens: %w", err)
	}
	return hashes, nil
}
