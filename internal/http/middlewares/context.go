package middlewares

import (
	"context"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper/token"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxTokenKey     ctxKey = "token"
)

func setRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, id)
}

// GetRequestID retorna el request id o "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestIDKey).(string)
	return v
}

// WithToken inyecta el contexto del bearer verificado.
func WithToken(ctx context.Context, tc *token.Context) context.Context {
	return context.WithValue(ctx, ctxTokenKey, tc)
}

// GetToken retorna el bearer verificado o nil si el request no trae uno.
func GetToken(ctx context.Context) *token.Context {
	tc, _ := ctx.Value(ctxTokenKey).(*token.Context)
	return tc
}
