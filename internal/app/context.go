package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/dropDatabas3/blueprint/internal/audit"
	"github.com/dropDatabas3/blueprint/internal/cache"
	"github.com/dropDatabas3/blueprint/internal/cloudtoken"
	"github.com/dropDatabas3/blueprint/internal/config"
	"github.com/dropDatabas3/blueprint/internal/email"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/policy"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/http/session"
	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/metrics"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/rate"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/store"
)

// Context es el contenedor de dependencias que reciben los módulos. Se
// construye una vez y no se muta después de Init.
type Context struct {
	Config  *config.Config
	Store   store.Connection
	Cache   cache.Client
	Bus     *messaging.Bus
	Metrics *metrics.Metrics

	Tokens      token.Service
	Policies    *policy.Registry
	Actions     policy.Actions
	Accounts    account.Service
	Clients     client.Service
	CloudTokens cloudtoken.Service

	Sessions     *session.Manager
	LoginLimiter rate.Limiter
}

// Options permite reemplazar piezas al construir el Context (tests, seed).
type Options struct {
	// Store ya abierto; si es nil se abre según Config.Storage.
	Store store.Connection
	// Hasher de contraseñas; nil usa los parámetros de producción.
	Hasher account.PasswordHasher
	// Mailer para notificaciones; nil usa SMTP si está configurado.
	Mailer email.Sender
}

// NewContext construye todas las dependencias a partir de la configuración.
func NewContext(ctx context.Context, cfg *config.Config, opts Options) (*Context, error) {
	log := logger.From(ctx).With(logger.Component("app"))

	// políticas primero: no toman recursos que haya que cerrar si fallan
	reg, err := policy.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("app: policy registry: %w", err)
	}
	actions, err := policy.DefaultActions(reg)
	if err != nil {
		return nil, fmt.Errorf("app: policy actions: %w", err)
	}

	conn := opts.Store
	if conn == nil {
		conn, err = store.Open(ctx, store.AdapterConfig{
			Name:         cfg.Storage.Driver,
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Storage.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("app: open store: %w", err)
		}
	}

	c, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		DefaultTTL: config.Duration(cfg.Cache.TTL),
		RedisAddr:  cfg.Cache.Redis.Addr,
		RedisDB:    cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	m, err := metrics.New()
	if err != nil {
		_ = conn.Close()
		_ = c.Close()
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	bus := messaging.New()
	mailer := opts.Mailer
	if mailer == nil {
		mailer = newMailer(cfg)
	}
	email.NewNotifier(mailer).Register(bus)
	audit.New(logger.Named("audit")).Register(bus)

	tokens := token.NewService(token.Deps{
		Accounts:   conn.Accounts(),
		Clients:    conn.Clients(),
		Tokens:     conn.Tokens(),
		Cache:      c,
		Metrics:    m,
		AccessTTL:  config.Duration(cfg.Tokens.AccessTTL),
		RefreshTTL: config.Duration(cfg.Tokens.RefreshTTL),
		CacheTTL:   config.Duration(cfg.Cache.TTL),
	})

	hasher := opts.Hasher
	if hasher == nil {
		hasher = password.NewHasher(password.Params{})
	}
	pwPolicy := password.DefaultPolicy
	pwPolicy.MinLength = cfg.Gatekeeper.PasswordMinLen

	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		log.Warn("session.secret not set, using an ephemeral secret")
	}

	ac := &Context{
		Config:   cfg,
		Store:    conn,
		Cache:    c,
		Bus:      bus,
		Metrics:  m,
		Tokens:   tokens,
		Policies: reg,
		Actions:  actions,
		Accounts: account.NewService(account.Deps{
			Accounts:        conn.Accounts(),
			Tokens:          tokens,
			Hasher:          hasher,
			Policy:          pwPolicy,
			Bus:             bus,
			UsernameIsEmail: cfg.Gatekeeper.UsernameIsEmail,
			AllowClientIDs:  cfg.Gatekeeper.AllowClientIDs,
		}),
		Clients:     client.NewService(conn.Clients()),
		CloudTokens: cloudtoken.NewService(conn.CloudTokens(), bus),
		Sessions: session.NewManager(session.Config{
			CookieName: cfg.Session.CookieName,
			Secret:     secret,
			Secure:     cfg.Session.Secure,
			TTL:        config.Duration(cfg.Session.TTL),
		}),
	}
	if cfg.Rate.Enabled {
		ac.LoginLimiter = newLimiter(c, cfg)
	}
	return ac, nil
}

// Close libera store y cache.
func (c *Context) Close() error {
	c.Bus.Wait()
	var firstErr error
	if err := c.Cache.Close(); err != nil {
		firstErr = err
	}
	if err := c.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func newMailer(cfg *config.Config) email.Sender {
	if cfg.SMTP.Host == "" {
		return email.NoopSender{}
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		From:               cfg.SMTP.From,
		TLSMode:            cfg.SMTP.TLS,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	})
}

// newLimiter comparte Redis con la cache cuando la hay, así el límite vale
// para todas las réplicas.
func newLimiter(c cache.Client, cfg *config.Config) rate.Limiter {
	window := config.Duration(cfg.Rate.Login.Window)
	if r, ok := c.(*cache.Redis); ok {
		return rate.NewRedisLimiter(r.Client(), cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.Login.Limit, window)
	}
	return rate.NewMemoryLimiter(cfg.Rate.Login.Limit, window)
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
