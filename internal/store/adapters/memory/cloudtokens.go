package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type cloudTokenRepo struct{ c *Conn }

func (r *cloudTokenRepo) Upsert(ctx context.Context, ct *repository.CloudToken) (*repository.CloudToken, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.c.cloud[ct.Device]
	if !ok {
		existing = &repository.CloudToken{
			ID:        ct.ID,
			Device:    ct.Device,
			CreatedAt: now,
		}
		if existing.ID == "" {
			existing.ID = uuid.NewString()
		}
		r.c.cloud[ct.Device] = existing
	}
	existing.Token = ct.Token
	existing.Owner = ct.Owner
	existing.UpdatedAt = now

	cp := *existing
	return &cp, nil
}

func (r *cloudTokenRepo) GetByDevice(ctx context.Context, device string) (*repository.CloudToken, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	ct, ok := r.c.cloud[device]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ct
	return &cp, nil
}
