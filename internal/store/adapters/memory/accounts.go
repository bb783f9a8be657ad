package memory

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

type accountRepo struct{ c *Conn }

func copyAccount(a *repository.Account) *repository.Account {
	cp := *a
	cp.Scope = cloneStrings(a.Scope)
	if a.DeletedAt != nil {
		d := *a.DeletedAt
		cp.DeletedAt = &d
	}
	return &cp
}

func (r *accountRepo) Create(ctx context.Context, in repository.CreateAccountInput) (*repository.Account, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if _, ok := r.c.accounts[in.ID]; ok {
		return nil, &repository.UniqueViolation{Field: "id", Constraint: "accounts_pkey"}
	}
	// Los índices únicos incluyen filas borradas, igual que en postgres.
	// Orden fijo: username antes que email.
	for _, a := range r.c.accounts {
		if a.Username == in.Username {
			return nil, &repository.UniqueViolation{Field: repository.FieldUsername, Constraint: "accounts_username_key"}
		}
	}
	for _, a := range r.c.accounts {
		if a.Email == in.Email {
			return nil, &repository.UniqueViolation{Field: repository.FieldEmail, Constraint: "accounts_email_key"}
		}
	}

	now := time.Now().UTC()
	a := &repository.Account{
		ID:           in.ID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Scope:        cloneStrings(in.Scope),
		SuperUser:    in.SuperUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.c.accounts[a.ID] = a
	return copyAccount(a), nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*repository.Account, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	a, ok := r.c.accounts[id]
	if !ok || a.IsDeleted() {
		return nil, repository.ErrNotFound
	}
	return copyAccount(a), nil
}

func (r *accountRepo) GetByLogin(ctx context.Context, login string) (*repository.Account, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, a := range r.c.accounts {
		if a.IsDeleted() {
			continue
		}
		if a.Username == login || strings.EqualFold(a.Email, login) {
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepo) Resurrect(ctx context.Context, field, value string) (*repository.Account, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, a := range r.c.accounts {
		if !a.IsDeleted() {
			continue
		}
		var match bool
		switch field {
		case repository.FieldUsername:
			match = a.Username == value
		case repository.FieldEmail:
			match = a.Email == value
		default:
			return nil, repository.ErrInvalidInput
		}
		if match {
			a.DeletedAt = nil
			a.UpdatedAt = time.Now().UTC()
			return copyAccount(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepo) LiveConflict(ctx context.Context, username, email string) (string, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	for _, a := range r.c.accounts {
		if !a.IsDeleted() && a.Username == username {
			return repository.FieldUsername, nil
		}
	}
	for _, a := range r.c.accounts {
		if !a.IsDeleted() && a.Email == email {
			return repository.FieldEmail, nil
		}
	}
	return "", nil
}

func (r *accountRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	a, ok := r.c.accounts[id]
	if !ok || a.IsDeleted() {
		return repository.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *accountRepo) SoftDelete(ctx context.Context, id string) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	a, ok := r.c.accounts[id]
	if !ok || a.IsDeleted() {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	a.UpdatedAt = now
	return nil
}
