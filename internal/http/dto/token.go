// Package dto define los cuerpos de request y response de la API.
package dto

import (
	"strings"
	"time"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
)

// TokenResponse es la forma de un token en el cable.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// NewTokenResponse arma la respuesta a partir de un token emitido.
func NewTokenResponse(in *token.Issued, now time.Time) *TokenResponse {
	if in == nil {
		return nil
	}
	return &TokenResponse{
		Token:        in.AccessToken,
		RefreshToken: in.RefreshToken,
		TokenType:    in.TokenType,
		ExpiresIn:    in.ExpiresIn(now),
		Scope:        strings.Join(in.Scope, " "),
	}
}
