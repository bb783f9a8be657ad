package logger

import "go.uber.org/zap"

// ---- HTTP ----

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// ---- Negocio ----

// AccountID identifica la cuenta sobre la que se opera.
func AccountID(v string) zap.Field { return zap.String("account_id", v) }

// ClientID identifica el cliente OAuth2 emisor.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// TokenKind es access | refresh.
func TokenKind(v string) zap.Field { return zap.String("token_kind", v) }

// Policy nombra la política evaluada en un request.
func Policy(v string) zap.Field { return zap.String("policy", v) }

// Topic nombra el tópico del bus de mensajes.
func Topic(v string) zap.Field { return zap.String("topic", v) }

// ---- Sistema ----

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// ---- Genéricos ----

func String(key, v string) zap.Field   { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
