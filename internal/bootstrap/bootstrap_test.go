package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/cache"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
)

func services(t *testing.T) (account.Service, client.Service) {
	t.Helper()
	conn := memory.New()
	tokens := token.NewService(token.Deps{
		Accounts: conn.Accounts(),
		Clients:  conn.Clients(),
		Tokens:   conn.Tokens(),
		Cache:    cache.NewMemory(0, ""),
	})
	accounts := account.NewService(account.Deps{
		Accounts: conn.Accounts(),
		Tokens:   tokens,
		Hasher:   password.NewHasher(password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 16}),
		Policy:   password.DefaultPolicy,
	})
	return accounts, client.NewService(conn.Clients())
}

func TestSeedIsRerunnable(t *testing.T) {
	ctx := context.Background()
	accounts, clients := services(t)
	fx := DefaultFixtures()

	res, err := Seed(ctx, accounts, clients, fx)
	require.NoError(t, err)
	require.Len(t, res.AccountIDs, 2)
	require.Len(t, res.ClientIDs, 4)

	res, err = Seed(ctx, accounts, clients, fx)
	require.NoError(t, err)
	require.Empty(t, res.AccountIDs)
	require.Empty(t, res.ClientIDs)

	acc, err := accounts.Login(ctx, "john.doe@test.me", "123456789")
	require.NoError(t, err)
	require.NotEmpty(t, acc.ID)

	cl, err := clients.Authenticate(ctx, "test-client-4", "12xdft")
	require.NoError(t, err)
	require.True(t, cl.DirectLogin)

	_, err = clients.Authenticate(ctx, "test-client-3", "xyz890")
	require.Error(t, err)
}

func TestCreateSuperUser(t *testing.T) {
	ctx := context.Background()
	accounts, _ := services(t)

	acc, created, err := CreateSuperUser(ctx, accounts, "root@test.me", "supersecret1")
	require.NoError(t, err)
	require.True(t, created)
	require.True(t, acc.SuperUser)

	_, created, err = CreateSuperUser(ctx, accounts, "root@test.me", "supersecret1")
	require.NoError(t, err)
	require.False(t, created)
}

func TestPromptCredentials(t *testing.T) {
	answers := [][]byte{[]byte("supersecret1"), []byte("supersecret1")}
	p := Prompt{
		In:  strings.NewReader("root@test.me\n"),
		Out: &bytes.Buffer{},
		ReadPassword: func(int) ([]byte, error) {
			a := answers[0]
			answers = answers[1:]
			return a, nil
		},
	}
	email, pw, err := p.Credentials()
	require.NoError(t, err)
	require.Equal(t, "root@test.me", email)
	require.Equal(t, "supersecret1", pw)

	p.In = strings.NewReader("root@test.me\n")
	answers = [][]byte{[]byte("a"), []byte("b")}
	_, _, err = p.Credentials()
	require.ErrorIs(t, err, ErrPasswordMismatch)
}
