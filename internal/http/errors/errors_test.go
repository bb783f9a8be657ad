package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
)

func TestFromErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{gatekeeper.Invalid("email", "invalid_email", "bad"), http.StatusBadRequest, "invalid_email"},
		{&gatekeeper.ConflictError{Field: "email"}, http.StatusConflict, "email_exists"},
		{fmt.Errorf("wrap: %w", gatekeeper.ErrAuthentication), http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{gatekeeper.ErrAuthorization, http.StatusForbidden, "FORBIDDEN"},
		{gatekeeper.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{gatekeeper.ErrInvalidToken, http.StatusUnauthorized, "TOKEN_INVALID"},
		{gatekeeper.ErrInvalidClient, http.StatusUnauthorized, "invalid_client"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		require.Equal(t, tc.status, got.HTTPStatus, tc.err.Error())
		require.Equal(t, tc.code, got.Code, tc.err.Error())
	}
}

func TestWriteErrorHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rr, req, fmt.Errorf("pg: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "connection refused")
}

func TestWriteErrorInvalidTokenSetsChallenge(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), gatekeeper.ErrInvalidToken)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "TOKEN_INVALID", body["code"])
}

func TestWithHelpersDoNotMutateBase(t *testing.T) {
	_ = ErrConflict.WithCode("email_exists").WithDetail("x")
	require.Equal(t, "CONFLICT", ErrConflict.Code)
	require.Empty(t, ErrConflict.Detail)
}
