package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/config"
	"github.com/dropDatabas3/blueprint/internal/email"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/store"
	"github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
)

type trackedStore struct {
	store.Connection
	closed int
}

func (s *trackedStore) Close() error {
	s.closed++
	return s.Connection.Close()
}

func testOptions(st store.Connection) Options {
	return Options{
		Store:  st,
		Hasher: password.NewHasher(password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 16}),
		Mailer: email.NoopSender{},
	}
}

func TestNewContextClosesStoreOnFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Kind = "bogus"
	st := &trackedStore{Connection: memory.New()}

	_, err := NewContext(context.Background(), cfg, testOptions(st))
	require.Error(t, err)
	require.Equal(t, 1, st.closed)
}

func TestNewContextWiresAndCloses(t *testing.T) {
	st := &trackedStore{Connection: memory.New()}

	ac, err := NewContext(context.Background(), config.Default(), testOptions(st))
	require.NoError(t, err)
	require.NotNil(t, ac.Policies)
	require.NotEmpty(t, ac.Actions)
	require.NotNil(t, ac.Tokens)
	require.Zero(t, st.closed)

	require.NoError(t, ac.Close())
	require.Equal(t, 1, st.closed)
}
