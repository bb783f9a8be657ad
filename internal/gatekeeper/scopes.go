package gatekeeper

// Scopes reconocidos por las políticas del gatekeeper.
const (
	ScopeAccountCreate      = "gatekeeper.account.create"
	ScopeAccountGet         = "gatekeeper.account.get"
	ScopeAccountImpersonate = "gatekeeper.account.impersonate"

	// ScopeSessionImpersonation marca los tokens emitidos por Impersonate.
	ScopeSessionImpersonation = "gatekeeper.session.impersonation"
)

// PayloadImpersonator es la clave del payload con el id del impersonador.
const PayloadImpersonator = "impersonator"
