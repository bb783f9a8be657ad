package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type tokenRepo struct{ c *Conn }

func copyToken(t *repository.Token) *repository.Token {
	cp := *t
	cp.Scope = cloneStrings(t.Scope)
	cp.Payload = cloneMap(t.Payload)
	return &cp
}

func (r *tokenRepo) Create(ctx context.Context, tokens ...*repository.Token) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	// validar todo antes de escribir: inserción atómica del par
	for _, t := range tokens {
		if _, ok := r.c.tokens[t.ID]; ok {
			return &repository.UniqueViolation{Field: "id", Constraint: "tokens_pkey"}
		}
		if _, ok := r.c.tokenHashes[t.Hash]; ok {
			return &repository.UniqueViolation{Field: "hash", Constraint: "tokens_hash_key"}
		}
	}
	for _, t := range tokens {
		r.c.tokens[t.ID] = copyToken(t)
		r.c.tokenHashes[t.Hash] = t.ID
	}
	return nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, hash string) (*repository.Token, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	id, ok := r.c.tokenHashes[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyToken(r.c.tokens[id]), nil
}

func (r *tokenRepo) Consume(ctx context.Context, hash string, now time.Time) (*repository.Token, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	id, ok := r.c.tokenHashes[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := r.c.tokens[id]
	if t.Kind != repository.TokenRefresh || !t.Active(now) {
		return nil, repository.ErrNotFound
	}
	consumed := now
	t.ConsumedAt = &consumed
	return copyToken(t), nil
}

func (r *tokenRepo) Release(ctx context.Context, hash string, consumedAt time.Time) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	id, ok := r.c.tokenHashes[hash]
	if !ok {
		return repository.ErrNotFound
	}
	t := r.c.tokens[id]
	if t.ConsumedAt == nil || !t.ConsumedAt.Equal(consumedAt) {
		return repository.ErrNotFound
	}
	t.ConsumedAt = nil
	return nil
}

func (r *tokenRepo) Revoke(ctx context.Context, now time.Time, ids ...string) ([]string, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var hashes []string
	for _, id := range ids {
		t, ok := r.c.tokens[id]
		if !ok || t.RevokedAt != nil {
			continue
		}
		revoked := now
		t.RevokedAt = &revoked
		hashes = append(hashes, t.Hash)
	}
	return hashes, nil
}

func (r *tokenRepo) RevokeByAccount(ctx context.Context, accountID string, now time.Time) ([]string, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var hashes []string
	for _, t := range r.c.tokens {
		if t.AccountID == nil || *t.AccountID != accountID || t.RevokedAt != nil {
			continue
		}
		revoked := now
		t.RevokedAt = &revoked
		hashes = append(hashes, t.Hash)
	}
	return hashes, nil
}
