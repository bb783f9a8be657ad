// Package cloudtoken registra los tokens push (FCM/APNs) de cada
// dispositivo, asociados a la cuenta del bearer cuando la hay.
package cloudtoken

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// Service define las operaciones sobre cloud tokens.
type Service interface {
	// Register inserta o reemplaza el token del device. El owner es la cuenta
	// del bearer; los tokens de cliente registran sin owner.
	Register(ctx context.Context, tc *token.Context, device, pushToken string) (*repository.CloudToken, error)
}

type service struct {
	repo repository.CloudTokenRepository
	bus  *messaging.Bus
}

func NewService(repo repository.CloudTokenRepository, bus *messaging.Bus) Service {
	if bus == nil {
		bus = messaging.New()
	}
	return &service{repo: repo, bus: bus}
}

func (s *service) Register(ctx context.Context, tc *token.Context, device, pushToken string) (*repository.CloudToken, error) {
	device = strings.TrimSpace(device)
	pushToken = strings.TrimSpace(pushToken)
	if device == "" {
		return nil, gatekeeper.Invalid("device", "invalid_device", "device is required")
	}
	if pushToken == "" {
		return nil, gatekeeper.Invalid("token", "invalid_token", "token is required")
	}

	ct := &repository.CloudToken{Device: device, Token: pushToken}
	if id := tc.AccountID(); id != "" {
		ct.Owner = &id
	}

	saved, err := s.repo.Upsert(ctx, ct)
	if err != nil {
		return nil, fmt.Errorf("cloudtoken: upsert: %w", err)
	}

	s.bus.Go(ctx, messaging.TopicCloudTokenRegistered, messaging.CloudTokenRegistered{
		Device: saved.Device,
		Owner:  tc.AccountID(),
	})
	logger.From(ctx).Debug("cloud token registered",
		logger.Component("cloudtoken"),
		logger.String("device", saved.Device),
		logger.ClientID(tc.ClientID()),
	)
	return saved, nil
}
