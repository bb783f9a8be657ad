// Package bootstrap carga datos iniciales: las cuentas y clientes de
// desarrollo (seed) y el primer superusuario.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/client"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// SeedAccount es una cuenta de prueba.
type SeedAccount struct {
	Username string
	Password string
	Scope    []string
}

// Fixtures son los datos de desarrollo.
type Fixtures struct {
	Accounts []SeedAccount
	Clients  []client.CreateInput
}

// DefaultFixtures son las cuentas y clientes de prueba del entorno local.
func DefaultFixtures() Fixtures {
	manage := []string{gatekeeper.ScopeAccountCreate, gatekeeper.ScopeAccountGet}
	return Fixtures{
		Accounts: []SeedAccount{
			{Username: "john.doe@test.me", Password: "123456789"},
			{Username: "jack.black@test.me", Password: "0987654321"},
		},
		Clients: []client.CreateInput{
			{ID: "test-client-1", Name: "Test Client 1", Secret: "abc123", RedirectURI: "http://localhost:5000/client1/redirect", Scope: manage, Confidential: true},
			{ID: "test-client-2", Name: "Test Client 2", Secret: "xyz890", RedirectURI: "http://localhost:5000/client2/redirect", Confidential: true},
			{ID: "test-client-3", Name: "Test Client 3 (disabled)", Secret: "xyz890", RedirectURI: "http://localhost:5000/client3/redirect", Confidential: true, Disabled: true},
			{ID: "test-client-4", Name: "Test Client 4 (direct login)", Secret: "12xdft", RedirectURI: "http://localhost:5000/client4/redirect", Confidential: true, DirectLogin: true},
		},
	}
}

// SeedResult devuelve los ids asignados, en el orden de las fixtures.
type SeedResult struct {
	AccountIDs []string
	ClientIDs  []string
}

// Seed crea las fixtures. Es re-ejecutable: lo que ya existe se omite.
func Seed(ctx context.Context, accounts account.Service, clients client.Service, fx Fixtures) (*SeedResult, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("Seed"))
	out := &SeedResult{}

	for _, a := range fx.Accounts {
		res, err := accounts.Create(ctx, account.CreateInput{
			Username: a.Username,
			Email:    a.Username,
			Password: a.Password,
			Scope:    a.Scope,
		}, account.CreateOptions{})
		if _, ok := gatekeeper.AsConflict(err); ok {
			log.Debug("account exists, skipping", logger.String("username", a.Username))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed account %s: %w", a.Username, err)
		}
		out.AccountIDs = append(out.AccountIDs, res.Account.ID)
	}

	for _, c := range fx.Clients {
		cl, err := clients.Create(ctx, c)
		if _, ok := gatekeeper.AsConflict(err); ok {
			log.Debug("client exists, skipping", logger.ClientID(c.ID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed client %s: %w", c.Name, err)
		}
		out.ClientIDs = append(out.ClientIDs, cl.ID)
	}

	log.Info("seed done",
		logger.Int("accounts", len(out.AccountIDs)),
		logger.Int("clients", len(out.ClientIDs)),
	)
	return out, nil
}
