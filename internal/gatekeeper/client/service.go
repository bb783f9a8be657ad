// Package client autentica y registra los clientes OAuth2 del gatekeeper.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/validation"
)

// CreateInput son los datos para registrar un cliente.
type CreateInput struct {
	ID           string
	Name         string
	Secret       string
	RedirectURI  string
	Scope        []string
	DirectLogin  bool
	Confidential bool
	Disabled     bool
}

// Service define las operaciones sobre clientes.
type Service interface {
	// Authenticate valida id y secret. Cualquier falla es
	// gatekeeper.ErrInvalidClient, sin distinguir la causa.
	Authenticate(ctx context.Context, id, secret string) (*repository.Client, error)
	Get(ctx context.Context, id string) (*repository.Client, error)
	Create(ctx context.Context, in CreateInput) (*repository.Client, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
}

type service struct {
	repo repository.ClientRepository
}

// NewService crea el servicio de clientes.
func NewService(repo repository.ClientRepository) Service {
	return &service{repo: repo}
}

// hash bcrypt fijo para igualar el costo cuando el cliente no existe
var dummySecretHash = mustHash("not-a-real-secret")

func mustHash(s string) string {
	h, err := password.HashSecret(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (s *service) Authenticate(ctx context.Context, id, secret string) (*repository.Client, error) {
	log := logger.From(ctx).With(logger.Component("gatekeeper.client"), logger.ClientID(id))

	c, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if repository.IsNotFound(err) {
			password.VerifySecret(secret, dummySecretHash)
			return nil, gatekeeper.ErrInvalidClient
		}
		return nil, fmt.Errorf("client: load: %w", err)
	}
	if c.Confidential && !password.VerifySecret(secret, c.SecretHash) {
		log.Info("client secret mismatch")
		return nil, gatekeeper.ErrInvalidClient
	}
	if c.Disabled {
		log.Info("disabled client attempted authentication")
		return nil, gatekeeper.ErrInvalidClient
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, id string) (*repository.Client, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrNotFound
		}
		return nil, fmt.Errorf("client: load: %w", err)
	}
	return c, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*repository.Client, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return nil, gatekeeper.Invalid("id", "invalid_id", "client id is required")
	}
	if in.Confidential && in.Secret == "" {
		return nil, gatekeeper.Invalid("secret", "invalid_secret", "confidential clients need a secret")
	}
	scope, bad := validation.NormalizeScopes(in.Scope)
	if bad != "" {
		return nil, gatekeeper.Invalid("scope", "invalid_scope", fmt.Sprintf("invalid scope %q", bad))
	}

	c := &repository.Client{
		ID:           in.ID,
		Name:         in.Name,
		RedirectURI:  in.RedirectURI,
		Scope:        scope,
		Disabled:     in.Disabled,
		DirectLogin:  in.DirectLogin,
		Confidential: in.Confidential,
	}
	if in.Secret != "" {
		h, err := password.HashSecret(in.Secret)
		if err != nil {
			return nil, fmt.Errorf("client: hash secret: %w", err)
		}
		c.SecretHash = h
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if field, ok := repository.ConflictField(err); ok {
			return nil, &gatekeeper.ConflictError{Field: field}
		}
		return nil, fmt.Errorf("client: create: %w", err)
	}
	return c, nil
}

func (s *service) SetDisabled(ctx context.Context, id string, disabled bool) error {
	if err := s.repo.SetDisabled(ctx, id, disabled); err != nil {
		if repository.IsNotFound(err) {
			return gatekeeper.ErrNotFound
		}
		return fmt.Errorf("client: update: %w", err)
	}
	return nil
}

// RequireDirectLogin falla si el cliente no puede usar el grant password.
func RequireDirectLogin(c *repository.Client) error {
	if c == nil || !c.DirectLogin {
		return gatekeeper.ErrDirectLoginNotAllowed
	}
	return nil
}
