// Package session maneja la cookie de sesión web de /auth/login. La cookie
// es un JWT HS256 con los ids del par de tokens emitido; nunca guarda el
// valor crudo de un token.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession indica que el request no trae una sesión válida.
var ErrNoSession = errors.New("session: missing or invalid")

// Config configura la cookie.
type Config struct {
	CookieName string
	Domain     string
	SameSite   string
	Secret     string
	Secure     bool
	TTL        time.Duration
}

// Session es el contenido de la cookie.
type Session struct {
	AccountID string
	ClientID  string
	AccessID  string
	RefreshID string
	ExpiresAt time.Time
}

type claims struct {
	ClientID  string `json:"cid"`
	RefreshID string `json:"rid,omitempty"`
	jwt.RegisteredClaims
}

// Manager emite, lee y borra la cookie de sesión.
type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "bp_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// Issue firma la sesión y la escribe como cookie.
func (m *Manager) Issue(w http.ResponseWriter, s Session) error {
	now := m.now()
	c := claims{
		ClientID:  s.ClientID,
		RefreshID: s.RefreshID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.AccountID,
			ID:        s.AccessID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return fmt.Errorf("session: sign: %w", err)
	}
	http.SetCookie(w, buildCookie(m.cfg.CookieName, signed, m.cfg.Domain, m.cfg.SameSite, m.cfg.Secure, m.cfg.TTL))
	return nil
}

// Read valida la cookie del request.
func (m *Manager) Read(r *http.Request) (*Session, error) {
	ck, err := r.Cookie(m.cfg.CookieName)
	if err != nil || ck.Value == "" {
		return nil, ErrNoSession
	}
	var c claims
	_, err = jwt.ParseWithClaims(ck.Value, &c, func(*jwt.Token) (any, error) {
		return []byte(m.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrNoSession
	}
	s := &Session{
		AccountID: c.Subject,
		ClientID:  c.ClientID,
		AccessID:  c.ID,
		RefreshID: c.RefreshID,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// Clear borra la cookie en el navegador.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, buildDeletionCookie(m.cfg.CookieName, m.cfg.Domain, m.cfg.SameSite, m.cfg.Secure))
}
