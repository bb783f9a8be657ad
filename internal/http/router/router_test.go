package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/app"
	"github.com/dropDatabas3/blueprint/internal/bootstrap"
	"github.com/dropDatabas3/blueprint/internal/config"
	"github.com/dropDatabas3/blueprint/internal/email"
	"github.com/dropDatabas3/blueprint/internal/http/dto"
	"github.com/dropDatabas3/blueprint/internal/security/password"
	"github.com/dropDatabas3/blueprint/internal/store/adapters/memory"
)

var cheap = password.NewHasher(password.Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 16})

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	ac     *app.Context
	client *http.Client
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	ac, err := app.NewContext(ctx, cfg, app.Options{Store: memory.New(), Hasher: cheap, Mailer: email.NoopSender{}})
	require.NoError(t, err)
	a := app.New(ac)
	require.NoError(t, a.Register(Default()...))
	require.NoError(t, a.Init(ctx))

	_, err = bootstrap.Seed(ctx, ac.Accounts, ac.Clients, bootstrap.DefaultFixtures())
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = ac.Close()
	})
	return &harness{
		t:   t,
		srv: srv,
		ac:  ac,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (h *harness) do(method, path, bearer string, body any) *http.Response {
	h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func (h *harness) form(path string, vals url.Values, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(vals.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

type apiError struct {
	Code string `json:"code"`
}

func (h *harness) clientToken(id, secret string) string {
	h.t.Helper()
	res := h.form("/v1/oauth2/token", url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {id},
		"client_secret": {secret},
	})
	require.Equal(h.t, http.StatusOK, res.StatusCode)
	return decode[dto.TokenResponse](h.t, res).Token
}

func (h *harness) passwordToken(username, pwd string) dto.TokenResponse {
	h.t.Helper()
	res := h.form("/v1/oauth2/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"test-client-4"},
		"client_secret": {"12xdft"},
		"username":      {username},
		"password":      {pwd},
	})
	require.Equal(h.t, http.StatusOK, res.StatusCode)
	return decode[dto.TokenResponse](h.t, res)
}

func createBody(username, email, pwd string) map[string]any {
	return map[string]any{"account": map[string]any{"username": username, "email": email, "password": pwd}}
}

func TestAccountLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	ct := h.clientToken("test-client-1", "abc123")

	res := h.do(http.MethodPost, "/v1/gatekeeper/accounts?login=true", ct, createBody("tester", "Tester@Example.com", "s3cretpass"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	created := decode[dto.AccountResponse](t, res)
	require.Equal(t, "tester@example.com", created.Account.Email)
	require.NotNil(t, created.Token)
	require.Equal(t, "Bearer", created.Token.TokenType)
	require.NotEmpty(t, created.Token.RefreshToken)
	user := created.Token.Token

	// duplicado vivo
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts", ct, createBody("tester", "other@example.com", "s3cretpass"))
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Equal(t, "username_exists", decode[apiError](t, res).Code)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", user, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, created.Account.ID, decode[dto.AccountResponse](t, res).Account.ID)

	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/me/password", user,
		map[string]any{"password": map[string]string{"current": "s3cretpass", "new": "n3wpassword"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, decode[bool](t, res))

	// la sesión sigue viva tras el cambio
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/authenticate", user,
		map[string]any{"authenticate": map[string]string{"password": "n3wpassword"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, decode[bool](t, res))

	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/authenticate", user,
		map[string]any{"authenticate": map[string]string{"password": "s3cretpass"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.False(t, decode[bool](t, res))

	res = h.do(http.MethodDelete, "/v1/gatekeeper/accounts/"+created.Account.ID, user, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", user, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "TOKEN_INVALID", decode[apiError](t, res).Code)
	require.NotEmpty(t, res.Header.Get("WWW-Authenticate"))

	// el alta resucita la cuenta borrada con su registro original
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts", ct, createBody("tester", "tester@example.com", "whatever99"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, created.Account.ID, decode[dto.AccountResponse](t, res).Account.ID)
}

func TestAuthorizationFailures(t *testing.T) {
	h := newHarness(t, nil)

	res := h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "TOKEN_MISSING", decode[apiError](t, res).Code)

	// cliente sin scope account.create
	ct := h.clientToken("test-client-2", "xyz890")
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts", ct, createBody("x", "x@example.com", "s3cretpass"))
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "FORBIDDEN", decode[apiError](t, res).Code)

	john := h.passwordToken("john.doe@test.me", "123456789")
	jack := h.passwordToken("jack.black@test.me", "0987654321")

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", jack.Token, nil)
	jackID := decode[dto.AccountResponse](t, res).Account.ID

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/"+jackID, john.Token, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/"+jackID+"/impersonate", john.Token, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/me/password", john.Token,
		map[string]any{"password": map[string]string{"current": "wrong", "new": "n3wpassword"}})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "INVALID_CREDENTIALS", decode[apiError](t, res).Code)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/nope", h.clientToken("test-client-1", "abc123"), nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestImpersonation(t *testing.T) {
	h := newHarness(t, nil)
	_, created, err := bootstrap.CreateSuperUser(context.Background(), h.ac.Accounts, "root@test.me", "supersecret1")
	require.NoError(t, err)
	require.True(t, created)

	root := h.passwordToken("root@test.me", "supersecret1")
	john := h.passwordToken("john.doe@test.me", "123456789")
	res := h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", john.Token, nil)
	johnID := decode[dto.AccountResponse](t, res).Account.ID

	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/"+johnID+"/impersonate", root.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	imp := decode[dto.TokenResponse](t, res)
	require.Equal(t, "Bearer", imp.TokenType)
	require.Empty(t, imp.RefreshToken)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", imp.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, johnID, decode[dto.AccountResponse](t, res).Account.ID)

	// un token de cliente no puede impersonar
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts/"+johnID+"/impersonate", h.clientToken("test-client-1", "abc123"), nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestCreateCannotGrantScopeBeyondCaller(t *testing.T) {
	h := newHarness(t, nil)
	rootAcc, _, err := bootstrap.CreateSuperUser(context.Background(), h.ac.Accounts, "root@test.me", "supersecret1")
	require.NoError(t, err)

	ct := h.clientToken("test-client-1", "abc123")
	body := createBody("mallory", "mallory@test.me", "s3cretpass")
	body["account"].(map[string]any)["scope"] = []string{"gatekeeper.account.impersonate"}
	res := h.do(http.MethodPost, "/v1/gatekeeper/accounts", ct, body)
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "FORBIDDEN", decode[apiError](t, res).Code)

	// mallory no existe, no puede loguearse
	res = h.form("/v1/oauth2/token", url.Values{
		"grant_type":    {"password"},
		"client_id":     {"test-client-4"},
		"client_secret": {"12xdft"},
		"username":      {"mallory"},
		"password":      {"s3cretpass"},
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	// un scope que el caller sí tiene se puede otorgar
	body = createBody("reader", "reader@test.me", "s3cretpass")
	body["account"].(map[string]any)["scope"] = []string{"gatekeeper.account.get"}
	res = h.do(http.MethodPost, "/v1/gatekeeper/accounts", ct, body)
	require.Equal(t, http.StatusOK, res.StatusCode)

	root := h.passwordToken("root@test.me", "supersecret1")
	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/"+rootAcc.ID, root.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestTokenEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	res := h.form("/v1/oauth2/token", url.Values{"grant_type": {"implicit"}})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "unsupported_grant_type", decode[apiError](t, res).Code)

	res = h.form("/v1/oauth2/token", url.Values{
		"grant_type": {"client_credentials"}, "client_id": {"test-client-1"}, "client_secret": {"bad"},
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "invalid_client", decode[apiError](t, res).Code)

	// sin direct_login
	res = h.form("/v1/oauth2/token", url.Values{
		"grant_type": {"password"}, "client_id": {"test-client-1"}, "client_secret": {"abc123"},
		"username": {"john.doe@test.me"}, "password": {"123456789"},
	})
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "unauthorized_client", decode[apiError](t, res).Code)

	res = h.form("/v1/oauth2/token", url.Values{
		"grant_type": {"password"}, "client_id": {"test-client-4"}, "client_secret": {"12xdft"},
		"username": {"john.doe@test.me"}, "password": {"wrong"},
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "invalid_grant", decode[apiError](t, res).Code)

	pair := h.passwordToken("john.doe@test.me", "123456789")
	refresh := func() *http.Response {
		return h.form("/v1/oauth2/token", url.Values{
			"grant_type": {"refresh_token"}, "client_id": {"test-client-4"}, "client_secret": {"12xdft"},
			"refresh_token": {pair.RefreshToken},
		})
	}
	res = refresh()
	require.Equal(t, http.StatusOK, res.StatusCode)
	next := decode[dto.TokenResponse](t, res)
	require.NotEqual(t, pair.Token, next.Token)

	// un solo uso
	res = refresh()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "invalid_grant", decode[apiError](t, res).Code)

	// el access anterior quedó revocado
	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", pair.Token, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = h.do(http.MethodPost, "/v1/oauth2/logout", next.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", next.Token, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestWebLoginAndLogout(t *testing.T) {
	h := newHarness(t, nil)

	res := h.do(http.MethodGet, "/auth/login", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("Content-Type"), "text/html")

	bad := []url.Values{
		{"username": {"john.doe@test.me"}, "password": {"wrong"}, "client": {"test-client-4"}, "client_secret": {"12xdft"}},
		{"username": {"nobody@test.me"}, "password": {"123456789"}, "client": {"test-client-4"}, "client_secret": {"12xdft"}},
		{"username": {"john.doe@test.me"}, "password": {"123456789"}, "client": {"test-client-1"}, "client_secret": {"abc123"}},
		{"username": {"john.doe@test.me"}, "password": {"123456789"}},
	}
	for _, vals := range bad {
		res = h.form("/auth/login", vals)
		require.Equal(t, http.StatusFound, res.StatusCode)
		require.Equal(t, "/auth/login", res.Header.Get("Location"))
	}

	res = h.form("/auth/login", url.Values{
		"username": {"john.doe@test.me"}, "password": {"123456789"},
		"client": {"test-client-4"}, "client_secret": {"12xdft"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	tok := decode[dto.TokenResponse](t, res)
	require.Len(t, tok.Token, 256)
	require.Len(t, tok.RefreshToken, 256)
	cookies := res.Cookies()
	require.NotEmpty(t, cookies)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", tok.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/auth/logout", nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res, err = h.client.Do(req)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusFound, res.StatusCode)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", tok.Token, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestCloudTokens(t *testing.T) {
	h := newHarness(t, nil)
	john := h.passwordToken("john.doe@test.me", "123456789")

	res := h.do(http.MethodPost, "/v1/cloud-tokens", john.Token, map[string]string{"device": "dev-1", "token": "push-1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, decode[bool](t, res))

	res = h.do(http.MethodPost, "/v1/cloud-tokens", john.Token, map[string]string{"device": "", "token": "push-1"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "invalid_device", decode[apiError](t, res).Code)

	res = h.do(http.MethodGet, "/v1/gatekeeper/accounts/me", john.Token, nil)
	johnID := decode[dto.AccountResponse](t, res).Account.ID

	ct, err := h.ac.Store.CloudTokens().GetByDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Equal(t, "push-1", ct.Token)
	require.NotNil(t, ct.Owner)
	require.Equal(t, johnID, *ct.Owner)

	// con token de cliente el registro queda sin owner
	client := h.clientToken("test-client-2", "xyz890")
	res = h.do(http.MethodPost, "/v1/cloud-tokens", client, map[string]string{"device": "1234567890", "token": "aabbccdd"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	ct, err = h.ac.Store.CloudTokens().GetByDevice(context.Background(), "1234567890")
	require.NoError(t, err)
	require.Nil(t, ct.Owner)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	res := h.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decode[dto.HealthResponse](t, res)
	require.Equal(t, "ready", body.Status)
	require.Equal(t, "ok", body.Components["store"])

	res = h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = h.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.Login.Limit = 2
		c.Rate.Login.Window = "1m"
	})
	vals := url.Values{"grant_type": {"client_credentials"}, "client_id": {"test-client-1"}, "client_secret": {"abc123"}}

	require.Equal(t, http.StatusOK, h.form("/v1/oauth2/token", vals).StatusCode)
	require.Equal(t, http.StatusOK, h.form("/v1/oauth2/token", vals).StatusCode)
	res := h.form("/v1/oauth2/token", vals)
	require.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("Retry-After"))
}
