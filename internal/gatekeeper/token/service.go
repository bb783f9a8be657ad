// Package token emite, verifica, rota y revoca los tokens opacos del
// gatekeeper. Solo el hash SHA-256 de cada token se persiste.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/blueprint/internal/cache"
	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/metrics"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	tokens "github.com/dropDatabas3/blueprint/internal/security/token"
)

// Defaults de vida útil.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultCacheTTL   = 5 * time.Minute

	// TokenType es el tipo informado al cliente.
	TokenType = "Bearer"

	cachePrefix = "token:"
)

// Service define las operaciones sobre tokens.
type Service interface {
	// Issue emite un access token (y opcionalmente un refresh token enlazado)
	// para target, firmado por el cliente principal.
	Issue(ctx context.Context, principal string, target Target, payload map[string]any, opts Options) (*Issued, error)

	// Verify resuelve un bearer token a su contexto. Cualquier falla es
	// gatekeeper.ErrInvalidToken.
	Verify(ctx context.Context, raw string) (*Context, error)

	// Refresh consume un refresh token de clientID y emite un par nuevo.
	Refresh(ctx context.Context, clientID, raw string) (*Issued, error)

	// Revoke revoca el token y su par. Es idempotente.
	Revoke(ctx context.Context, raw string) error

	// RevokeIDs revoca por id de registro (usado por la sesión web).
	RevokeIDs(ctx context.Context, ids ...string) error

	// RevokeAll revoca todos los tokens vivos de una cuenta.
	RevokeAll(ctx context.Context, accountID string) error
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Accounts repository.AccountRepository
	Clients  repository.ClientRepository
	Tokens   repository.TokenRepository

	// Cache guarda registros de token por hash. Opcional.
	Cache   cache.Client
	Metrics *metrics.Metrics

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CacheTTL   time.Duration

	// Now y NewID son inyectables para tests.
	Now   func() time.Time
	NewID func() string
}

type service struct {
	deps  Deps
	group singleflight.Group
}

// NewService crea el servicio de tokens.
func NewService(deps Deps) Service {
	if deps.AccessTTL <= 0 {
		deps.AccessTTL = DefaultAccessTTL
	}
	if deps.RefreshTTL <= 0 {
		deps.RefreshTTL = DefaultRefreshTTL
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = DefaultCacheTTL
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return ulid.Make().String() }
	}
	return &service{deps: deps}
}

func (s *service) Issue(ctx context.Context, principal string, target Target, payload map[string]any, opts Options) (*Issued, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("gatekeeper.token"),
		logger.Op("Issue"),
		logger.ClientID(principal),
	)

	client, err := s.deps.Clients.Get(ctx, principal)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrInvalidClient
		}
		return nil, fmt.Errorf("token: load principal: %w", err)
	}
	if client.Disabled {
		return nil, gatekeeper.ErrInvalidClient
	}

	scope, accountID, err := s.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(opts.Scope) > 0 {
		scope = opts.Scope
	}

	now := s.deps.Now()
	access, accessRaw, err := s.newRecord(repository.TokenAccess, now, s.deps.AccessTTL)
	if err != nil {
		return nil, err
	}
	access.AccountID = accountID
	access.ClientID = client.ID
	access.Scope = slices.Clone(scope)
	access.Payload = maps.Clone(payload)
	access.Origin = opts.Origin
	access.Refreshable = opts.Refreshable

	records := []*repository.Token{access}
	out := &Issued{
		AccessToken: accessRaw,
		TokenType:   TokenType,
		AccessID:    access.ID,
		Scope:       access.Scope,
		ExpiresAt:   access.ExpiresAt,
	}

	if opts.Refreshable {
		refresh, refreshRaw, err := s.newRecord(repository.TokenRefresh, now, s.deps.RefreshTTL)
		if err != nil {
			return nil, err
		}
		refresh.AccountID = accountID
		refresh.ClientID = client.ID
		refresh.Scope = access.Scope
		refresh.Payload = access.Payload
		refresh.Origin = opts.Origin
		refresh.Refreshable = true
		refresh.PairID = &access.ID
		access.PairID = &refresh.ID

		records = append(records, refresh)
		out.RefreshToken = refreshRaw
		out.RefreshID = refresh.ID
	}

	if err := s.deps.Tokens.Create(ctx, records...); err != nil {
		log.Error("token persist failed", logger.Err(err))
		return nil, fmt.Errorf("token: persist: %w", err)
	}

	for _, r := range records {
		s.deps.Metrics.TokenIssued(string(r.Kind))
	}
	log.Debug("token issued", logger.String("target", string(target.Kind)), logger.Bool("refreshable", opts.Refreshable))
	return out, nil
}

// resolveTarget valida el sujeto y retorna su scope por defecto.
func (s *service) resolveTarget(ctx context.Context, target Target) ([]string, *string, error) {
	switch target.Kind {
	case TargetAccount:
		acc, err := s.deps.Accounts.GetByID(ctx, target.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, nil, gatekeeper.ErrInvalidTarget
			}
			return nil, nil, fmt.Errorf("token: load account: %w", err)
		}
		id := acc.ID
		return acc.Scope, &id, nil
	case TargetClient:
		c, err := s.deps.Clients.Get(ctx, target.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, nil, gatekeeper.ErrInvalidTarget
			}
			return nil, nil, fmt.Errorf("token: load client: %w", err)
		}
		if c.Disabled {
			return nil, nil, gatekeeper.ErrInvalidTarget
		}
		return c.Scope, nil, nil
	default:
		return nil, nil, gatekeeper.ErrInvalidTarget
	}
}

func (s *service) newRecord(kind repository.TokenKind, now time.Time, ttl time.Duration) (*repository.Token, string, error) {
	raw, err := tokens.New()
	if err != nil {
		return nil, "", fmt.Errorf("token: generate: %w", err)
	}
	return &repository.Token{
		ID:        s.deps.NewID(),
		Hash:      tokens.SHA256Base64URL(raw),
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, raw, nil
}

func (s *service) Verify(ctx context.Context, raw string) (*Context, error) {
	tc, err := s.verify(ctx, raw)
	if err != nil {
		s.deps.Metrics.TokenVerified("invalid")
		return nil, err
	}
	s.deps.Metrics.TokenVerified("valid")
	return tc, nil
}

func (s *service) verify(ctx context.Context, raw string) (*Context, error) {
	if tokens.Validate(raw) != nil {
		return nil, gatekeeper.ErrInvalidToken
	}
	hash := tokens.SHA256Base64URL(raw)

	rec, err := s.lookup(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrInvalidToken
		}
		return nil, fmt.Errorf("token: lookup: %w", err)
	}
	if rec.Kind != repository.TokenAccess || !rec.Active(s.deps.Now()) {
		return nil, gatekeeper.ErrInvalidToken
	}

	client, err := s.deps.Clients.Get(ctx, rec.ClientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrInvalidToken
		}
		return nil, fmt.Errorf("token: load client: %w", err)
	}
	if client.Disabled {
		return nil, gatekeeper.ErrInvalidToken
	}

	tc := &Context{
		TokenID:   rec.ID,
		Client:    client,
		Scope:     rec.Scope,
		Payload:   rec.Payload,
		Origin:    rec.Origin,
		ExpiresAt: rec.ExpiresAt,
	}
	if rec.AccountID != nil {
		acc, err := s.deps.Accounts.GetByID(ctx, *rec.AccountID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, gatekeeper.ErrInvalidToken
			}
			return nil, fmt.Errorf("token: load account: %w", err)
		}
		tc.Account = acc
	}
	return tc, nil
}

// lookup busca el registro por hash pasando por la cache. Las búsquedas
// concurrentes del mismo hash comparten una única ida al store.
func (s *service) lookup(ctx context.Context, hash string) (*repository.Token, error) {
	key := cachePrefix + hash
	if s.deps.Cache != nil {
		if b, err := s.deps.Cache.Get(ctx, key); err == nil {
			var rec repository.Token
			if json.Unmarshal(b, &rec) == nil {
				s.deps.Metrics.TokenCacheLookup(true)
				return &rec, nil
			}
		}
		s.deps.Metrics.TokenCacheLookup(false)
	}

	v, err, _ := s.group.Do(hash, func() (any, error) {
		rec, err := s.deps.Tokens.GetByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		s.remember(ctx, key, rec)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.Token), nil
}

func (s *service) remember(ctx context.Context, key string, rec *repository.Token) {
	if s.deps.Cache == nil || !rec.Active(s.deps.Now()) {
		return
	}
	ttl := min(s.deps.CacheTTL, rec.ExpiresAt.Sub(s.deps.Now()))
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, b, ttl); err != nil {
		logger.From(ctx).Warn("token cache set failed", logger.Component("gatekeeper.token"), logger.Err(err))
	}
}

func (s *service) forget(ctx context.Context, hashes ...string) {
	if s.deps.Cache == nil || len(hashes) == 0 {
		return
	}
	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, cachePrefix+h)
	}
	if err := s.deps.Cache.Delete(ctx, keys...); err != nil {
		logger.From(ctx).Warn("token cache delete failed", logger.Component("gatekeeper.token"), logger.Err(err))
	}
}

func (s *service) Refresh(ctx context.Context, clientID, raw string) (*Issued, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("gatekeeper.token"),
		logger.Op("Refresh"),
		logger.ClientID(clientID),
	)

	if tokens.Validate(raw) != nil {
		return nil, gatekeeper.ErrInvalidToken
	}
	hash := tokens.SHA256Base64URL(raw)

	// Un cliente ajeno no puede quemar el refresh token de otro.
	peek, err := s.deps.Tokens.GetByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrInvalidToken
		}
		return nil, fmt.Errorf("token: lookup: %w", err)
	}
	if peek.Kind != repository.TokenRefresh || peek.ClientID != clientID {
		return nil, gatekeeper.ErrInvalidToken
	}

	now := s.deps.Now()
	rec, err := s.deps.Tokens.Consume(ctx, hash, now)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Info("refresh token reuse or expired")
			return nil, gatekeeper.ErrInvalidToken
		}
		return nil, fmt.Errorf("token: consume: %w", err)
	}

	target := ClientTarget(rec.ClientID)
	if rec.AccountID != nil {
		target = AccountTarget(*rec.AccountID)
	}
	out, err := s.Issue(ctx, rec.ClientID, target, rec.Payload, Options{
		Scope:       rec.Scope,
		Refreshable: true,
		Origin:      rec.Origin,
	})
	switch {
	case errors.Is(err, gatekeeper.ErrInvalidTarget) || errors.Is(err, gatekeeper.ErrInvalidClient):
		// el sujeto ya no existe: el refresh queda consumido
		if rerr := s.revokePair(ctx, rec, now); rerr != nil {
			log.Warn("revoke pair failed", logger.Err(rerr))
		}
		return nil, gatekeeper.ErrInvalidToken
	case err != nil:
		// falla transitoria: se libera el refresh para que el holder reintente
		if rerr := s.deps.Tokens.Release(ctx, hash, now); rerr != nil {
			log.Error("refresh release failed", logger.Err(rerr))
		}
		return nil, err
	}

	// el access anterior se revoca recién con el par nuevo persistido
	if err := s.revokePair(ctx, rec, now); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) revokePair(ctx context.Context, rec *repository.Token, now time.Time) error {
	if rec.PairID == nil {
		return nil
	}
	hashes, err := s.deps.Tokens.Revoke(ctx, now, *rec.PairID)
	if err != nil {
		return fmt.Errorf("token: revoke pair: %w", err)
	}
	s.forget(ctx, hashes...)
	return nil
}

func (s *service) Revoke(ctx context.Context, raw string) error {
	if tokens.Validate(raw) != nil {
		return nil
	}
	hash := tokens.SHA256Base64URL(raw)
	rec, err := s.deps.Tokens.GetByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("token: lookup: %w", err)
	}
	ids := []string{rec.ID}
	if rec.PairID != nil {
		ids = append(ids, *rec.PairID)
	}
	if err := s.RevokeIDs(ctx, ids...); err != nil {
		return err
	}
	s.forget(ctx, hash)
	return nil
}

func (s *service) RevokeIDs(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	hashes, err := s.deps.Tokens.Revoke(ctx, s.deps.Now(), ids...)
	if err != nil {
		return fmt.Errorf("token: revoke: %w", err)
	}
	s.forget(ctx, hashes...)
	return nil
}

func (s *service) RevokeAll(ctx context.Context, accountID string) error {
	hashes, err := s.deps.Tokens.RevokeByAccount(ctx, accountID, s.deps.Now())
	if err != nil {
		return fmt.Errorf("token: revoke all: %w", err)
	}
	s.forget(ctx, hashes...)
	logger.From(ctx).Info("tokens revoked",
		logger.Component("gatekeeper.token"),
		logger.AccountID(accountID),
		logger.Int("count", len(hashes)),
	)
	return nil
}
