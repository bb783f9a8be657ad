// Package memory implementa un adapter en memoria para desarrollo y tests.
// Emula los índices únicos y las operaciones condicionales del adapter
// postgres con un único mutex.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.Connection, error) {
	return New(), nil
}

// Conn es el estado compartido de todos los repositorios en memoria.
type Conn struct {
	mu          sync.Mutex
	accounts    map[string]*repository.Account
	clients     map[string]*repository.Client
	tokens      map[string]*repository.Token // por id
	tokenHashes map[string]string            // hash -> id
	cloud       map[string]*repository.CloudToken
}

// New crea una conexión vacía.
func New() *Conn {
	return &Conn{
		accounts:    make(map[string]*repository.Account),
		clients:     make(map[string]*repository.Client),
		tokens:      make(map[string]*repository.Token),
		tokenHashes: make(map[string]string),
		cloud:       make(map[string]*repository.CloudToken),
	}
}

func (c *Conn) Name() string                   { return "memory" }
func (c *Conn) Ping(ctx context.Context) error { return nil }
func (c *Conn) Close() error                   { return nil }

func (c *Conn) Accounts() repository.AccountRepository       { return &accountRepo{c} }
func (c *Conn) Clients() repository.ClientRepository         { return &clientRepo{c} }
func (c *Conn) Tokens() repository.TokenRepository           { return &tokenRepo{c} }
func (c *Conn) CloudTokens() repository.CloudTokenRepository { return &cloudTokenRepo{c} }

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
