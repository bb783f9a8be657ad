package policy

// Nombres de las hojas del gatekeeper.
const (
	HasScope        = "gatekeeper.request.hasScope"
	IsSuperUser     = "gatekeeper.isSuperUser"
	IsUserToken     = "gatekeeper.auth.isUserToken"
	IsClientToken   = "gatekeeper.auth.isClientToken"
	IsOwner         = "gatekeeper.account.isOwner"
	IsImpersonation = "gatekeeper.session.isImpersonation"
)

func builtins() []Definition {
	return []Definition{
		{Name: HasScope, Arity: 1, Eval: hasScope},
		{Name: IsSuperUser, Arity: 0, Eval: isSuperUser},
		{Name: IsUserToken, Arity: 0, Eval: isUserToken},
		{Name: IsClientToken, Arity: 0, Eval: isClientToken},
		{Name: IsOwner, Arity: 0, Eval: isOwner},
		{Name: IsImpersonation, Arity: 0, Eval: isImpersonation},
	}
}

func hasScope(c *Context, args []string) (bool, string) {
	if c.Token.HasScope(args[0]) {
		return true, ""
	}
	return false, "missing scope " + args[0]
}

func isSuperUser(c *Context, _ []string) (bool, string) {
	if c.Token.IsUserToken() && c.Token.Account.SuperUser {
		return true, ""
	}
	return false, "not a super user"
}

func isUserToken(c *Context, _ []string) (bool, string) {
	if c.Token.IsUserToken() {
		return true, ""
	}
	return false, "not a user token"
}

func isClientToken(c *Context, _ []string) (bool, string) {
	if c.Token.IsClientToken() {
		return true, ""
	}
	return false, "not a client token"
}

func isOwner(c *Context, _ []string) (bool, string) {
	if !c.Token.IsUserToken() {
		return false, "not a user token"
	}
	id := c.Param(ParamAccountID)
	if id == Me || (id != "" && id == c.Token.Account.ID) {
		return true, ""
	}
	return false, "not the resource owner"
}

func isImpersonation(c *Context, _ []string) (bool, string) {
	if c.Token.Impersonator() != "" {
		return true, ""
	}
	return false, "not an impersonation session"
}
