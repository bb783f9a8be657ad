// Package helpers agrupa utilidades de request/response para los
// controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	httperrors "github.com/dropDatabas3/blueprint/internal/http/errors"
)

const maxBody = 1 << 20

// ReadJSON decodifica el body JSON (tolerante a campos desconocidos) con
// límite de 1MB. Un body vacío deja v intacto.
func ReadJSON(r *http.Request, v any) error {
	if !IsJSON(r) {
		return httperrors.ErrInvalidJSON.WithDetail("Content-Type debe ser application/json")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// IsJSON indica si el request declara un body JSON.
func IsJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// ReadValues lee un body JSON plano o un formulario urlencoded como pares
// string. Lo usan /auth/login y /v1/oauth2/token, que aceptan ambos.
func ReadValues(r *http.Request) (url.Values, error) {
	if IsJSON(r) {
		var m map[string]any
		if err := ReadJSON(r, &m); err != nil {
			return nil, err
		}
		out := url.Values{}
		for k, v := range m {
			if s, ok := v.(string); ok {
				out.Set(k, s)
			}
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, httperrors.ErrBadRequest.WithCause(err)
	}
	return r.PostForm, nil
}

// WriteJSON escribe v como JSON con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Origin es el origen guardado en los tokens: el header Origin si viene,
// si no la IP del cliente.
func Origin(r *http.Request, clientIP string) string {
	if o := strings.TrimSpace(r.Header.Get("Origin")); o != "" {
		return o
	}
	return clientIP
}
