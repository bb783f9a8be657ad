package dto

import (
	"time"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
)

// Account es la representación pública de una cuenta. Nunca incluye el hash.
type Account struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Scope     []string  `json:"scope"`
	SuperUser bool      `json:"super_user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewAccount(a *repository.Account) Account {
	scope := a.Scope
	if scope == nil {
		scope = []string{}
	}
	return Account{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Scope:     scope,
		SuperUser: a.SuperUser,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// CreateAccountRequest es el body de POST /v1/gatekeeper/accounts.
type CreateAccountRequest struct {
	Account struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Scope    []string `json:"scope"`
	} `json:"account"`
}

// AccountResponse envuelve la cuenta; Token solo con ?login=true.
type AccountResponse struct {
	Account Account        `json:"account"`
	Token   *TokenResponse `json:"token,omitempty"`
}

// ChangePasswordRequest es el body de POST .../password.
type ChangePasswordRequest struct {
	Password struct {
		Current string `json:"current"`
		New     string `json:"new"`
	} `json:"password"`
}

// AuthenticateRequest es el body de POST .../authenticate.
type AuthenticateRequest struct {
	Authenticate struct {
		Password string `json:"password"`
	} `json:"authenticate"`
}
