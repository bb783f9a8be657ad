// Package cache provee un cache clave/valor con dos backends:
//   - memory (go-cache, in-process, para desarrollo y un solo nodo)
//   - redis (compartido entre réplicas)
//
// El token service lo usa para no ir al store en cada verificación.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set guarda un valor. ttl 0 usa el default del backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete elimina una o más keys. No falla si no existen.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera recursos.
	Close() error
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind       string // "memory" | "redis"
	DefaultTTL time.Duration
	RedisAddr  string
	RedisDB    int
	Prefix     string
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "memory", "":
		return NewMemory(cfg.DefaultTTL, cfg.Prefix), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("cache: redis addr required")
		}
		return NewRedis(cfg.RedisAddr, cfg.RedisDB, cfg.Prefix, cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Kind)
	}
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
