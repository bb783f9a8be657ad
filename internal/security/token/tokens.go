// Package tokens genera y hashea los tokens opacos del gatekeeper.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

const (
	// RawBytes es la entropía de cada token: 192 bytes aleatorios.
	RawBytes = 192
	// Length es el largo del valor codificado en base64url sin padding.
	Length = 256
)

// ErrMalformed indica que el valor no tiene la forma de un token emitido.
var ErrMalformed = errors.New("malformed token")

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New genera un token del largo estándar (256 caracteres).
func New() (string, error) {
	return GenerateOpaqueToken(RawBytes)
}

// Validate chequea largo y alfabeto sin tocar el almacenamiento.
func Validate(raw string) error {
	if len(raw) != Length {
		return ErrMalformed
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrMalformed
		}
	}
	return nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
