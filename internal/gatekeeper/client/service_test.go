package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
)

func newService(t *testing.T) Service {
	t.Helper()
	svc := NewService(memory.New().Clients())
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{ID: "abc123", Name: "web", Secret: "s3cret", Confidential: true, DirectLogin: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{ID: "pub", Name: "spa"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{ID: "off", Name: "old", Secret: "s3cret", Confidential: true, Disabled: true})
	require.NoError(t, err)
	return svc
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	c, err := svc.Authenticate(ctx, "abc123", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "abc123", c.ID)
	require.NotEqual(t, "s3cret", c.SecretHash)

	_, err = svc.Authenticate(ctx, "abc123", "wrong")
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	_, err = svc.Authenticate(ctx, "missing", "s3cret")
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	_, err = svc.Authenticate(ctx, "off", "s3cret")
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	// clientes públicos no presentan secret
	_, err = svc.Authenticate(ctx, "pub", "")
	require.NoError(t, err)
}

func TestCreateConflictAndValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{ID: "abc123"})
	ce, ok := gatekeeper.AsConflict(err)
	require.True(t, ok)
	require.Equal(t, "id_exists", ce.Code())

	_, err = svc.Create(ctx, CreateInput{ID: "  "})
	ve, ok := gatekeeper.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, "invalid_id", ve.Code)

	_, err = svc.Create(ctx, CreateInput{ID: "conf", Confidential: true})
	_, ok = gatekeeper.AsValidation(err)
	require.True(t, ok)
}

func TestSetDisabled(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetDisabled(ctx, "abc123", true))
	_, err := svc.Authenticate(ctx, "abc123", "s3cret")
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	require.ErrorIs(t, svc.SetDisabled(ctx, "nope", true), gatekeeper.ErrNotFound)
}

func TestRequireDirectLogin(t *testing.T) {
	require.NoError(t, RequireDirectLogin(&repository.Client{DirectLogin: true}))
	require.ErrorIs(t, RequireDirectLogin(&repository.Client{}), gatekeeper.ErrDirectLoginNotAllowed)
	require.ErrorIs(t, RequireDirectLogin(nil), gatekeeper.ErrDirectLoginNotAllowed)
}
