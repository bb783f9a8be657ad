package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/cache"
	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	tokens "github.com/dropDatabas3/blueprint/internal/security/token"
	"github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
)

type fixture struct {
	svc   Service
	conn  *memory.Conn
	cache cache.Client
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{conn: memory.New(), cache: cache.NewMemory(time.Minute, ""), now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	_, err := f.conn.Accounts().Create(ctx, repository.CreateAccountInput{
		ID: "acc-1", Username: "john", Email: "john.doe@test.me", PasswordHash: "x", Scope: []string{"profile"},
	})
	require.NoError(t, err)
	require.NoError(t, f.conn.Clients().Create(ctx, &repository.Client{ID: "abc123", Name: "web", Scope: []string{"svc"}}))
	require.NoError(t, f.conn.Clients().Create(ctx, &repository.Client{ID: "xyz890", Name: "other"}))
	require.NoError(t, f.conn.Clients().Create(ctx, &repository.Client{ID: "off", Name: "disabled", Disabled: true}))

	f.svc = NewService(Deps{
		Accounts:   f.conn.Accounts(),
		Clients:    f.conn.Clients(),
		Tokens:     f.conn.Tokens(),
		Cache:      f.cache,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func TestIssueAndVerifyAccountToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), map[string]any{"k": "v"}, Options{Origin: "127.0.0.1"})
	require.NoError(t, err)
	require.Len(t, out.AccessToken, 256)
	require.Empty(t, out.RefreshToken)
	require.Equal(t, "Bearer", out.TokenType)
	require.Equal(t, int64(3600), out.ExpiresIn(f.now))

	tc, err := f.svc.Verify(ctx, out.AccessToken)
	require.NoError(t, err)
	require.True(t, tc.IsUserToken())
	require.Equal(t, "acc-1", tc.AccountID())
	require.Equal(t, "abc123", tc.ClientID())
	require.Equal(t, []string{"profile"}, tc.Scope)
	require.Equal(t, "v", tc.Payload["k"])
	require.Equal(t, "127.0.0.1", tc.Origin)

	// segunda verificación sale de la cache
	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.NoError(t, err)
}

func TestIssueClientTokenWithScopeOverride(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Issue(context.Background(), "abc123", ClientTarget("abc123"), nil, Options{Scope: []string{"custom"}})
	require.NoError(t, err)

	tc, err := f.svc.Verify(context.Background(), out.AccessToken)
	require.NoError(t, err)
	require.True(t, tc.IsClientToken())
	require.True(t, tc.HasScope("custom"))
	require.False(t, tc.HasScope("svc"))
}

func TestIssueRejectsBadPrincipalOrTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, "nope", AccountTarget("acc-1"), nil, Options{})
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	_, err = f.svc.Issue(ctx, "off", AccountTarget("acc-1"), nil, Options{})
	require.ErrorIs(t, err, gatekeeper.ErrInvalidClient)

	_, err = f.svc.Issue(ctx, "abc123", AccountTarget("ghost"), nil, Options{})
	require.ErrorIs(t, err, gatekeeper.ErrInvalidTarget)

	_, err = f.svc.Issue(ctx, "abc123", ClientTarget("off"), nil, Options{})
	require.ErrorIs(t, err, gatekeeper.ErrInvalidTarget)
}

func TestVerifyRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []string{"", "short", string(make([]byte, 256))} {
		_, err := f.svc.Verify(ctx, raw)
		require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
	}

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)

	// un refresh token no sirve como bearer
	_, err = f.svc.Verify(ctx, out.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)

	// vencido
	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}

func TestVerifyFailsAfterAccountDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{})
	require.NoError(t, err)
	require.NoError(t, f.conn.Accounts().SoftDelete(ctx, "acc-1"))

	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}

func TestRefreshRotatesAndIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), map[string]any{"k": "v"}, Options{Refreshable: true, Origin: "o"})
	require.NoError(t, err)
	require.Len(t, first.RefreshToken, 256)
	require.NotEqual(t, first.AccessToken, first.RefreshToken)

	// calentar la cache para verificar que Refresh la invalida
	_, err = f.svc.Verify(ctx, first.AccessToken)
	require.NoError(t, err)

	// otro cliente no puede usarlo ni consumirlo
	_, err = f.svc.Refresh(ctx, "xyz890", first.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)

	second, err := f.svc.Refresh(ctx, "abc123", first.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, second.RefreshToken)

	tc, err := f.svc.Verify(ctx, second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "v", tc.Payload["k"])
	require.Equal(t, "o", tc.Origin)

	// el access anterior quedó revocado
	_, err = f.svc.Verify(ctx, first.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)

	// reuso
	_, err = f.svc.Refresh(ctx, "abc123", first.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}

func TestRefreshExpiredFailsWithoutConsuming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)

	f.now = f.now.Add(24*time.Hour + time.Second)
	_, err = f.svc.Refresh(ctx, "abc123", out.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)

	rec, err := f.conn.Tokens().GetByHash(ctx, tokens.SHA256Base64URL(out.RefreshToken))
	require.NoError(t, err)
	require.Nil(t, rec.ConsumedAt)
	require.Nil(t, rec.RevokedAt)
}

// flakyTokens falla el Create mientras failCreate esté activo.
type flakyTokens struct {
	repository.TokenRepository
	failCreate bool
}

func (r *flakyTokens) Create(ctx context.Context, toks ...*repository.Token) error {
	if r.failCreate {
		return errors.New("connection reset")
	}
	return r.TokenRepository.Create(ctx, toks...)
}

func TestRefreshReleasesTokenWhenIssueFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := &flakyTokens{TokenRepository: f.conn.Tokens()}
	svc := NewService(Deps{
		Accounts:   f.conn.Accounts(),
		Clients:    f.conn.Clients(),
		Tokens:     repo,
		RefreshTTL: 24 * time.Hour,
		Now:        func() time.Time { return f.now },
	})

	out, err := svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)

	repo.failCreate = true
	_, err = svc.Refresh(ctx, "abc123", out.RefreshToken)
	require.Error(t, err)
	require.NotErrorIs(t, err, gatekeeper.ErrInvalidToken)

	// el par original sigue usable
	_, err = svc.Verify(ctx, out.AccessToken)
	require.NoError(t, err)

	repo.failCreate = false
	next, err := svc.Refresh(ctx, "abc123", out.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, next.AccessToken)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, out.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}

func TestRefreshConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(ctx, "abc123", out.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestRevokeIsIdempotentAndKillsPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, out.RefreshToken))
	require.NoError(t, f.svc.Revoke(ctx, out.RefreshToken))
	require.NoError(t, f.svc.Revoke(ctx, "garbage"))

	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
	_, err = f.svc.Refresh(ctx, "abc123", out.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}

func TestRevokeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Issue(ctx, "abc123", AccountTarget("acc-1"), nil, Options{})
	require.NoError(t, err)
	b, err := f.svc.Issue(ctx, "xyz890", AccountTarget("acc-1"), nil, Options{Refreshable: true})
	require.NoError(t, err)
	c, err := f.svc.Issue(ctx, "abc123", ClientTarget("abc123"), nil, Options{})
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeAll(ctx, "acc-1"))

	for _, raw := range []string{a.AccessToken, b.AccessToken} {
		_, err := f.svc.Verify(ctx, raw)
		require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
	}
	_, err = f.svc.Refresh(ctx, "xyz890", b.RefreshToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)

	// tokens de cliente no se tocan
	_, err = f.svc.Verify(ctx, c.AccessToken)
	require.NoError(t, err)
}

func TestVerifyDisabledClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.conn.Clients().Create(ctx, &repository.Client{ID: "soon-off", Name: "x"}))
	out, err := f.svc.Issue(ctx, "soon-off", AccountTarget("acc-1"), nil, Options{})
	require.NoError(t, err)

	// la verificación consulta siempre el cliente
	require.NoError(t, f.conn.Clients().SetDisabled(ctx, "soon-off", true))

	_, err = f.svc.Verify(ctx, out.AccessToken)
	require.ErrorIs(t, err, gatekeeper.ErrInvalidToken)
}
