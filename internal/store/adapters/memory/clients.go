package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type clientRepo struct{ c *Conn }

func (r *clientRepo) Create(ctx context.Context, cl *repository.Client) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if _, ok := r.c.clients[cl.ID]; ok {
		return &repository.UniqueViolation{Field: "id", Constraint: "clients_pkey"}
	}
	cp := *cl
	cp.Scope = cloneStrings(cl.Scope)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.c.clients[cp.ID] = &cp
	return nil
}

func (r *clientRepo) Get(ctx context.Context, id string) (*repository.Client, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	cl, ok := r.c.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *cl
	cp.Scope = cloneStrings(cl.Scope)
	return &cp, nil
}

func (r *clientRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	cl, ok := r.c.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	cl.Disabled = disabled
	return nil
}
