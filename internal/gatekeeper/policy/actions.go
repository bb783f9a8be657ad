package policy

import (
	"fmt"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
)

// Acciones protegidas.
const (
	ActionAccountCreate         = "account.create"
	ActionAccountGet            = "account.get"
	ActionAccountDelete         = "account.delete"
	ActionAccountChangePassword = "account.changePassword"
	ActionAccountAuthenticate   = "account.authenticate"
	ActionAccountImpersonate    = "account.impersonate"
	ActionCloudTokenRegister    = "cloudTokens.register"
)

// Actions mapea acción a política.
type Actions map[string]Policy

// Get retorna la política de la acción. Una acción sin política no existe
// para el motor y Evaluate la niega.
func (a Actions) Get(action string) Policy { return a[action] }

// DefaultActions arma la tabla de acciones del gatekeeper sobre r.
func DefaultActions(r *Registry) (actions Actions, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			actions, err = nil, fmt.Errorf("policy: build actions: %v", rec)
		}
	}()

	var (
		superUser = r.MustAssert(IsSuperUser)
		userToken = r.MustAssert(IsUserToken)
		owner     = r.MustAssert(IsOwner)
	)

	return Actions{
		ActionAccountCreate:         Any(r.MustAssert(HasScope, gatekeeper.ScopeAccountCreate), superUser),
		ActionAccountGet:            Any(owner, r.MustAssert(HasScope, gatekeeper.ScopeAccountGet), superUser),
		ActionAccountDelete:         Any(All(userToken, owner), superUser),
		ActionAccountChangePassword: All(userToken, Any(owner, superUser)),
		ActionAccountAuthenticate:   userToken,
		ActionAccountImpersonate:    All(userToken, Any(r.MustAssert(HasScope, gatekeeper.ScopeAccountImpersonate), superUser)),
		ActionCloudTokenRegister:    Any(userToken, r.MustAssert(IsClientToken)),
	}, nil
}
