// Package account implementa el ciclo de vida de las cuentas: alta con
// resurrección de cuentas borradas, consulta, baja lógica, cambio de
// contraseña, re-autenticación e impersonación.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
	"github.com/dropDatabas3/blueprint/internal/messaging"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/validation"
)

// PasswordHasher es el contrato de hashing; password.Hasher lo cumple.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, phc string) bool
}

// IDPreparer decide el id final de una cuenta nueva. in.ID trae el id que
// pidió el cliente (si lo permite la configuración).
type IDPreparer func(ctx context.Context, in CreateInput) (string, error)

// CreateInput son los datos de alta.
type CreateInput struct {
	ID        string
	Username  string
	Email     string
	Password  string
	Scope     []string
	SuperUser bool
}

// CreateOptions controla el login posterior al alta.
type CreateOptions struct {
	// Login emite un token refrescable para la cuenta nueva.
	Login bool
	// ClientID es el cliente principal del token (el del caller).
	ClientID string
	// Origin se guarda en el token emitido.
	Origin string
	// Caller es el token que pide el alta. Si no es nil, el scope pedido debe
	// estar contenido en el del caller salvo que sea super usuario.
	Caller *token.Context
}

// CreateResult es el resultado del alta.
type CreateResult struct {
	Account *repository.Account
	Token   *token.Issued // sólo con Login
	// Resurrected indica que se reactivó una cuenta borrada.
	Resurrected bool
}

// Service define las operaciones sobre cuentas.
type Service interface {
	Create(ctx context.Context, in CreateInput, opts CreateOptions) (*CreateResult, error)
	Get(ctx context.Context, id string) (*repository.Account, error)
	Delete(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, current, next string) error
	Authenticate(ctx context.Context, id, plain string) (bool, error)
	Impersonate(ctx context.Context, caller *token.Context, targetID string) (*token.Issued, error)
	// Login valida credenciales por username o email.
	Login(ctx context.Context, login, plain string) (*repository.Account, error)
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Accounts repository.AccountRepository
	Tokens   token.Service
	Hasher   PasswordHasher
	Policy   password.Policy
	Bus      *messaging.Bus

	UsernameIsEmail bool
	AllowClientIDs  bool
	PrepareID       IDPreparer
	Now             func() time.Time
}

type service struct {
	deps      Deps
	dummyHash string
}

// NewService crea el servicio de cuentas.
func NewService(deps Deps) Service {
	if deps.Hasher == nil {
		deps.Hasher = password.NewHasher(password.Params{})
	}
	if deps.PrepareID == nil {
		deps.PrepareID = DefaultIDPreparer
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Bus == nil {
		deps.Bus = messaging.New()
	}
	// hash descartable para que un login inexistente cueste lo mismo
	dummy, _ := deps.Hasher.Hash(uuid.NewString())
	return &service{deps: deps, dummyHash: dummy}
}

// DefaultIDPreparer respeta el id pedido y si no hay uno asigna un UUID.
func DefaultIDPreparer(_ context.Context, in CreateInput) (string, error) {
	if in.ID != "" {
		return in.ID, nil
	}
	return uuid.NewString(), nil
}

func (s *service) Create(ctx context.Context, in CreateInput, opts CreateOptions) (*CreateResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("gatekeeper.account"),
		logger.Op("Create"),
	)

	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	if sc := ungrantedScope(opts.Caller, in.Scope); sc != "" {
		log.Info("scope not held by caller", logger.String("scope", sc), logger.ClientID(opts.Caller.ClientID()))
		return nil, fmt.Errorf("%w: scope %q not held by caller", gatekeeper.ErrAuthorization, sc)
	}
	id, err := s.deps.PrepareID(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("account: prepare id: %w", err)
	}
	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("account: hash password: %w", err)
	}

	res := &CreateResult{}
	res.Account, err = s.deps.Accounts.Create(ctx, repository.CreateAccountInput{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Scope:        in.Scope,
		SuperUser:    in.SuperUser,
	})
	if err != nil {
		field, ok := repository.ConflictField(err)
		if !ok {
			return nil, fmt.Errorf("account: create: %w", err)
		}
		res.Account, err = s.resurrect(ctx, field, in)
		if err != nil {
			return nil, err
		}
		res.Resurrected = true
		log.Info("account resurrected", logger.AccountID(res.Account.ID), logger.String("field", field))
	} else {
		log.Info("account created", logger.AccountID(res.Account.ID))
	}

	if opts.Login {
		res.Token, err = s.deps.Tokens.Issue(ctx, opts.ClientID, token.AccountTarget(res.Account.ID), nil, token.Options{
			Refreshable: true,
			Origin:      opts.Origin,
		})
		if err != nil {
			return nil, fmt.Errorf("account: login after create: %w", err)
		}
	}
	return res, nil
}

// ungrantedScope retorna el primer scope pedido que el caller no tiene. Un
// super usuario puede otorgar cualquiera; sin caller no se restringe.
func ungrantedScope(caller *token.Context, scope []string) string {
	if caller == nil || (caller.IsUserToken() && caller.Account.SuperUser) {
		return ""
	}
	for _, sc := range scope {
		if !caller.HasScope(sc) {
			return sc
		}
	}
	return ""
}

// resurrect reactiva la fila borrada que chocó en field. Si alguna cuenta
// viva choca con el username o el email pedidos retorna ConflictError.
func (s *service) resurrect(ctx context.Context, field string, in CreateInput) (*repository.Account, error) {
	var value string
	switch field {
	case repository.FieldUsername:
		value = in.Username
	case repository.FieldEmail:
		value = in.Email
	default:
		return nil, &gatekeeper.ConflictError{Field: field}
	}

	live, err := s.deps.Accounts.LiveConflict(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("account: check live conflict: %w", err)
	}
	if live != "" {
		return nil, &gatekeeper.ConflictError{Field: live}
	}

	acc, err := s.deps.Accounts.Resurrect(ctx, field, value)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &gatekeeper.ConflictError{Field: field}
		}
		return nil, fmt.Errorf("account: resurrect: %w", err)
	}
	return acc, nil
}

func (s *service) normalize(in CreateInput) (CreateInput, error) {
	if in.ID != "" && !s.deps.AllowClientIDs {
		return in, gatekeeper.Invalid("id", "id_not_allowed", "account id is assigned by the server")
	}

	email, ok := normalizeEmail(in.Email)
	if !ok {
		return in, gatekeeper.Invalid("email", "invalid_email", "email is not a valid address")
	}
	in.Email = email

	in.Username = strings.TrimSpace(in.Username)
	if s.deps.UsernameIsEmail {
		if in.Username == "" {
			in.Username = email
		}
		u, ok := normalizeEmail(in.Username)
		if !ok {
			return in, gatekeeper.Invalid("username", "invalid_username", "username must be an email")
		}
		in.Username = u
	}
	if in.Username == "" {
		return in, gatekeeper.Invalid("username", "invalid_username", "username is required")
	}

	if in.Password == "" {
		return in, gatekeeper.Invalid("password", "invalid_password", "password is required")
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		return in, gatekeeper.Invalid("password", "weak_password", strings.Join(reasons, ","))
	}

	scope, bad := validation.NormalizeScopes(in.Scope)
	if bad != "" {
		return in, gatekeeper.Invalid("scope", "invalid_scope", fmt.Sprintf("invalid scope %q", bad))
	}
	in.Scope = scope
	return in, nil
}

// normalizeEmail acepta solo una dirección desnuda y la pasa a minúsculas.
func normalizeEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return "", false
	}
	return strings.ToLower(addr.Address), true
}

func (s *service) Get(ctx context.Context, id string) (*repository.Account, error) {
	acc, err := s.deps.Accounts.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, gatekeeper.ErrNotFound
		}
		return nil, fmt.Errorf("account: get: %w", err)
	}
	return acc, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.deps.Accounts.SoftDelete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return gatekeeper.ErrNotFound
		}
		return fmt.Errorf("account: delete: %w", err)
	}
	if err := s.deps.Tokens.RevokeAll(ctx, id); err != nil {
		return err
	}
	s.deps.Bus.Go(ctx, messaging.TopicAccountDeleted, messaging.AccountDeleted{AccountID: id})
	logger.From(ctx).Info("account deleted", logger.Component("gatekeeper.account"), logger.AccountID(id))
	return nil
}

func (s *service) ChangePassword(ctx context.Context, id, current, next string) error {
	log := logger.From(ctx).With(
		logger.Component("gatekeeper.account"),
		logger.Op("ChangePassword"),
		logger.AccountID(id),
	)

	acc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.deps.Hasher.Verify(current, acc.PasswordHash) {
		log.Info("current password mismatch")
		return gatekeeper.ErrAuthentication
	}
	if next == "" {
		return gatekeeper.Invalid("password", "invalid_password", "new password is required")
	}
	if ok, reasons := s.deps.Policy.Validate(next); !ok {
		return gatekeeper.Invalid("password", "weak_password", strings.Join(reasons, ","))
	}

	hash, err := s.deps.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("account: hash password: %w", err)
	}
	if err := s.deps.Accounts.UpdatePasswordHash(ctx, acc.ID, hash); err != nil {
		if repository.IsNotFound(err) {
			return gatekeeper.ErrNotFound
		}
		return fmt.Errorf("account: update password: %w", err)
	}

	s.deps.Bus.Go(ctx, messaging.TopicPasswordChanged, messaging.PasswordChanged{
		AccountID: acc.ID,
		Username:  acc.Username,
		Email:     acc.Email,
		At:        s.deps.Now(),
	})
	log.Info("password changed")
	return nil
}

func (s *service) Authenticate(ctx context.Context, id, plain string) (bool, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s.deps.Hasher.Verify(plain, acc.PasswordHash), nil
}

func (s *service) Impersonate(ctx context.Context, caller *token.Context, targetID string) (*token.Issued, error) {
	if !caller.IsUserToken() {
		return nil, gatekeeper.ErrAuthorization
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	out, err := s.deps.Tokens.Issue(ctx, caller.ClientID(), token.AccountTarget(target.ID),
		map[string]any{gatekeeper.PayloadImpersonator: caller.AccountID()},
		token.Options{Scope: []string{gatekeeper.ScopeSessionImpersonation}, Origin: caller.Origin},
	)
	if err != nil {
		return nil, fmt.Errorf("account: impersonate: %w", err)
	}
	logger.From(ctx).Info("impersonation token issued",
		logger.Component("gatekeeper.account"),
		logger.AccountID(target.ID),
		logger.String("impersonator", caller.AccountID()),
	)
	return out, nil
}

func (s *service) Login(ctx context.Context, login, plain string) (*repository.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || plain == "" {
		return nil, gatekeeper.ErrAuthentication
	}
	acc, err := s.deps.Accounts.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.deps.Hasher.Verify(plain, s.dummyHash)
			return nil, gatekeeper.ErrAuthentication
		}
		return nil, fmt.Errorf("account: login: %w", err)
	}
	if !s.deps.Hasher.Verify(plain, acc.PasswordHash) {
		return nil, gatekeeper.ErrAuthentication
	}
	return acc, nil
}
