package repository

import (
	"context"
	"time"
)

// TokenKind distingue access de refresh.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Token es el registro persistido de un token opaco. Solo se guarda el hash;
// el valor crudo se entrega una única vez al emitirlo.
type Token struct {
	ID          string
	Hash        string
	Kind        TokenKind
	AccountID   *string
	ClientID    string
	Scope       []string
	Payload     map[string]any
	Origin      string
	Refreshable bool
	PairID      *string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	ConsumedAt  *time.Time
}

// Active indica si el token sigue vigente en now.
func (t *Token) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}

// TokenRepository define operaciones sobre tokens. Es el único escritor del
// estado de un token; los registros son inmutables salvo revoked_at/consumed_at.
type TokenRepository interface {
	// Create inserta uno o más tokens de forma atómica (par access/refresh).
	Create(ctx context.Context, tokens ...*Token) error

	// GetByHash busca un token por hash. ErrNotFound si no existe.
	GetByHash(ctx context.Context, hash string) (*Token, error)

	// Consume marca consumido un refresh token vivo en una sola operación
	// condicional y lo retorna. ErrNotFound si no existe, ya fue consumido,
	// está revocado o vencido.
	Consume(ctx context.Context, hash string, now time.Time) (*Token, error)

	// Release deshace un Consume: limpia consumed_at sólo si sigue siendo
	// consumedAt. Es la compensación cuando falla la emisión del par nuevo.
	Release(ctx context.Context, hash string, consumedAt time.Time) error

	// Revoke marca revocados los ids indicados que aún no lo estén.
	// Retorna los hashes afectados (para invalidar caches).
	Revoke(ctx context.Context, now time.Time, ids ...string) ([]string, error)

	// RevokeByAccount revoca todos los tokens vivos de una cuenta.
	RevokeByAccount(ctx context.Context, accountID string, now time.Time) ([]string, error)
}
