package token

import (
	"slices"
	"time"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
)

// TargetKind indica a quién representa un token.
type TargetKind string

const (
	TargetAccount TargetKind = "account"
	TargetClient  TargetKind = "client"
)

// Target es el sujeto del token: una cuenta o un cliente.
type Target struct {
	Kind TargetKind
	ID   string
}

// AccountTarget arma un target de cuenta.
func AccountTarget(id string) Target { return Target{Kind: TargetAccount, ID: id} }

// ClientTarget arma un target de cliente.
func ClientTarget(id string) Target { return Target{Kind: TargetClient, ID: id} }

// Options ajusta la emisión.
type Options struct {
	// Scope reemplaza al scope por defecto del target si no es vacío.
	Scope []string
	// Refreshable emite además un refresh token enlazado.
	Refreshable bool
	// Origin se guarda en ambos registros (IP o header Origin del request).
	Origin string
}

// Issued es el resultado de Issue/Refresh. Los valores crudos no se guardan.
type Issued struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	AccessID     string
	RefreshID    string
	Scope        []string
	ExpiresAt    time.Time
}

// ExpiresIn retorna los segundos de vida restantes del access token.
func (i *Issued) ExpiresIn(now time.Time) int64 {
	d := i.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Context es el resultado de verificar un bearer token. Lo consumen las
// políticas y los controllers.
type Context struct {
	TokenID   string
	Account   *repository.Account // nil para tokens de cliente
	Client    *repository.Client  // cliente emisor (principal)
	Scope     []string
	Payload   map[string]any
	Origin    string
	ExpiresAt time.Time
}

// IsUserToken indica si el token representa a una cuenta.
func (c *Context) IsUserToken() bool { return c != nil && c.Account != nil }

// IsClientToken indica si el token representa sólo a un cliente.
func (c *Context) IsClientToken() bool { return c != nil && c.Account == nil && c.Client != nil }

// HasScope chequea si el token trae el scope exacto.
func (c *Context) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scope, scope)
}

// AccountID retorna el id de la cuenta o "".
func (c *Context) AccountID() string {
	if c.IsUserToken() {
		return c.Account.ID
	}
	return ""
}

// ClientID retorna el id del cliente principal o "".
func (c *Context) ClientID() string {
	if c != nil && c.Client != nil {
		return c.Client.ID
	}
	return ""
}

// Impersonator retorna el id de la cuenta que impersona, si el token es de
// impersonación.
func (c *Context) Impersonator() string {
	if c == nil || !c.HasScope(gatekeeper.ScopeSessionImpersonation) {
		return ""
	}
	v, _ := c.Payload[gatekeeper.PayloadImpersonator].(string)
	return v
}
