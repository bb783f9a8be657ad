package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

func TestMapErrorNoRows(t *testing.T) {
	if !errors.Is(mapError(pgx.ErrNoRows), repository.ErrNotFound) {
		t.Fatalf("expected ErrNoRows to map to ErrNotFound")
	}
}

func TestMapErrorUniqueViolationUsesConstraintName(t *testing.T) {
	cases := map[string]string{
		"accounts_username_key":   repository.FieldUsername,
		"accounts_email_key":      repository.FieldEmail,
		"cloud_tokens_device_key": repository.FieldDevice,
		"something_else":          "something_else",
	}
	for constraint, want := range cases {
		// el mensaje es deliberadamente engañoso: sólo cuenta el constraint
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key on email"}
		err := mapError(fmt.Errorf("wrapped: %w", pgErr))
		field, ok := repository.ConflictField(err)
		if !ok || field != want {
			t.Fatalf("constraint %s: got field %q (%v), want %q", constraint, field, ok, want)
		}
	}
}

func TestMapErrorPassThrough(t *testing.T) {
	other := &pgconn.PgError{Code: "40001"}
	if got := mapError(other); got != other {
		t.Fatalf("expected non-unique pg errors to pass through, got %v", got)
	}
	if mapError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
