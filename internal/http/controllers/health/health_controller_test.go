package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/http/dto"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyz(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		checks map[string]Pinger
		status int
		state  string
	}{
		{"all up", map[string]Pinger{"store": ok, "cache": ok}, http.StatusOK, "ready"},
		{"cache down", map[string]Pinger{"store": ok, "cache": down}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewController(tc.checks).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tc.status, rec.Code)
			var body dto.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.state, body.Status)
			require.Len(t, body.Components, len(tc.checks))
		})
	}
}
