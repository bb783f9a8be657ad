// Package pg implementa el adapter PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// uniqueViolation es el SQLSTATE de violación de índice único.
const uniqueViolation = "23505"

// constraintFields mapea el nombre del índice al campo de dominio.
var constraintFields = map[string]string{
	"accounts_pkey":           "id",
	"accounts_username_key":   repository.FieldUsername,
	"accounts_email_key":      repository.FieldEmail,
	"clients_pkey":            "id",
	"tokens_pkey":             "id",
	"tokens_hash_key":         "hash",
	"cloud_tokens_device_key": repository.FieldDevice,
}

// mapError traduce errores del driver a errores de repositorio. Se apoya en
// el SQLSTATE y el nombre del constraint, nunca en el texto del mensaje.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return &repository.UniqueViolation{Field: field, Constraint: pgErr.ConstraintName}
	}
	return err
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &pgConnection{pool: pool}, nil
}

type pgConnection struct {
	pool *pgxpool.Pool
}

func (c *pgConnection) Name() string { return "postgres" }

func (c *pgConnection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *pgConnection) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConnection) Accounts() repository.AccountRepository       { return &accountRepo{pool: c.pool} }
func (c *pgConnection) Clients() repository.ClientRepository         { return &clientRepo{pool: c.pool} }
func (c *pgConnection) Tokens() repository.TokenRepository           { return &tokenRepo{pool: c.pool} }
func (c *pgConnection) CloudTokens() repository.CloudTokenRepository { return &cloudTokenRepo{pool: c.pool} }
