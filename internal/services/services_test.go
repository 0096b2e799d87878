package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/authdemo/console/internal/client"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var testOrigins = []string{"http://localhost:8003"}

type stack struct {
	clock  *clockwork.FakeClock
	tokens *Tokens
	auth   *httptest.Server
	app1   *httptest.Server
	app2   *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()
	clock := clockwork.NewFakeClock()
	tokens, err := NewTokens(testSecret, "HS256", 30*time.Minute, clock)
	require.NoError(t, err)
	users, err := NewUsers(DemoUsers, bcrypt.MinCost)
	require.NoError(t, err)

	st := &stack{clock: clock, tokens: tokens}
	st.app2 = httptest.NewServer(NewApp2(testOrigins, nil).Handler())
	t.Cleanup(st.app2.Close)
	st.auth = httptest.NewServer(NewAuth(users, tokens, testOrigins, nil).Handler())
	t.Cleanup(st.auth.Close)
	up := NewUpstream("app2", st.app2.URL, time.Second, nil)
	st.app1 = httptest.NewServer(NewApp1(tokens, up, testOrigins, nil).Handler())
	t.Cleanup(st.app1.Close)
	return st
}

func decodeJSON(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&m))
	return m
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getWith(t *testing.T, url string, mod func(*http.Request)) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if mod != nil {
		mod(req)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func TestLoginSuccessSetsCookie(t *testing.T) {
	st := newStack(t)
	resp := postJSON(t, st.auth.URL+"/login", `{"username":"alice","password":"wonderland"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeJSON(t, resp.Body)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])

	var ck *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			ck = c
		}
	}
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, body["access_token"], ck.Value)
}

func TestLoginInvalidCredentials(t *testing.T) {
	st := newStack(t)
	for _, body := range []string{
		`{"username":"alice","password":"wrong"}`,
		`{"username":"mallory","password":"pass"}`,
		`{"username":"","password":""}`,
	} {
		resp := postJSON(t, st.auth.URL+"/login", body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, body)
		assert.Equal(t, "Invalid credentials", decodeJSON(t, resp.Body)["detail"])
	}
}

func TestLoginMalformedBody(t *testing.T) {
	st := newStack(t)
	for _, body := range []string{`not json`, `{"username":"alice"}`, `{}`} {
		resp := postJSON(t, st.auth.URL+"/login", body)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)
	}
}

func TestLogoutDeletesCookie(t *testing.T) {
	st := newStack(t)
	resp := postJSON(t, st.auth.URL+"/logout", `{}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", decodeJSON(t, resp.Body)["message"])
	require.Len(t, resp.Cookies(), 1)
	assert.Equal(t, CookieName, resp.Cookies()[0].Name)
	assert.Less(t, resp.Cookies()[0].MaxAge, 0)
}

func TestApp1RequiresToken(t *testing.T) {
	st := newStack(t)
	for _, path := range []string{"/", "/read_app2"} {
		resp := getWith(t, st.app1.URL+path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Missing token", decodeJSON(t, resp.Body)["detail"])
	}
}

func TestApp1RootWithBearer(t *testing.T) {
	st := newStack(t)
	tok, err := st.tokens.Issue("bob")
	require.NoError(t, err)

	resp := getWith(t, st.app1.URL+"/", bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello from Kubernetes, bob!!!!!", decodeJSON(t, resp.Body)["message"])
}

func TestApp1RootWithCookie(t *testing.T) {
	st := newStack(t)
	tok, err := st.tokens.Issue("charlie")
	require.NoError(t, err)

	resp := getWith(t, st.app1.URL+"/", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: tok})
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello from Kubernetes, charlie!!!!!", decodeJSON(t, resp.Body)["message"])
}

func TestApp1ExpiredToken(t *testing.T) {
	st := newStack(t)
	tok, err := st.tokens.Issue("alice")
	require.NoError(t, err)
	st.clock.Advance(31 * time.Minute)

	resp := getWith(t, st.app1.URL+"/", bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token expired", decodeJSON(t, resp.Body)["detail"])
}

func TestApp1InvalidToken(t *testing.T) {
	st := newStack(t)
	other, err := NewTokens("other-secret", "HS256", time.Minute, st.clock)
	require.NoError(t, err)
	forged, err := other.Issue("alice")
	require.NoError(t, err)

	for _, tok := range []string{"garbage", forged} {
		resp := getWith(t, st.app1.URL+"/", bearer(tok))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid token", decodeJSON(t, resp.Body)["detail"])
	}
}

func TestReadApp2(t *testing.T) {
	st := newStack(t)
	tok, err := st.tokens.Issue("alice")
	require.NoError(t, err)

	resp := getWith(t, st.app1.URL+"/read_app2", bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"message": "Hello from FastAPI App 1 (with configmap)",
		"app2_response": {"message": "Hello from FastAPI App 2!"}
	}`, string(raw))
}

func newApp1With(t *testing.T, tokens *Tokens, upstreamURL string, timeout time.Duration) (*httptest.Server, *Upstream) {
	t.Helper()
	up := NewUpstream("app2-test", upstreamURL, timeout, nil)
	srv := httptest.NewServer(NewApp1(tokens, up, testOrigins, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, up
}

func TestReadApp2UpstreamDown(t *testing.T) {
	st := newStack(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	app1, _ := newApp1With(t, st.tokens, deadURL, time.Second)
	tok, _ := st.tokens.Issue("alice")

	resp := getWith(t, app1.URL+"/read_app2", bearer(tok))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body)["detail"], "request error")
}

func TestReadApp2UpstreamTimeout(t *testing.T) {
	st := newStack(t)
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	app1, _ := newApp1With(t, st.tokens, slow.URL, 50*time.Millisecond)
	tok, _ := st.tokens.Issue("alice")

	resp := getWith(t, app1.URL+"/read_app2", bearer(tok))
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body)["detail"], "timeout")
}

func TestReadApp2NonJSONUpstream(t *testing.T) {
	st := newStack(t)
	text := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	t.Cleanup(text.Close)

	app1, _ := newApp1With(t, st.tokens, text.URL, time.Second)
	tok, _ := st.tokens.Issue("alice")

	resp := getWith(t, app1.URL+"/read_app2", bearer(tok))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeJSON(t, resp.Body)["detail"], "unexpected error")
}

func TestUpstreamBreakerOpens(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	up := NewUpstream("breaker-test", deadURL, time.Second, nil)
	for i := 0; i < 5; i++ {
		_, err := up.Get(context.Background())
		require.ErrorIs(t, err, ErrUpstreamRequest)
	}
	assert.Equal(t, gobreaker.StateOpen, up.State())

	_, err := up.Get(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamRequest)
	assert.Contains(t, err.Error(), "open")
}

func TestBurn(t *testing.T) {
	assert.Equal(t, "", BurnCPU(0))
	assert.Equal(t, "", BurnCPU(-3))

	block := []byte(strings.Repeat("x", 1024))
	sum := sha256.Sum256(block)
	assert.Equal(t, hex.EncodeToString(sum[:]), BurnCPU(1))

	next := sha256.Sum256(append(block, sum[:]...))
	assert.Equal(t, hex.EncodeToString(next[:]), BurnCPU(2))
}

func TestBurnEndpoint(t *testing.T) {
	st := newStack(t)

	resp := getWith(t, st.app1.URL+"/burn?iterations=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, BurnCPU(3), decodeJSON(t, resp.Body)["digest"])

	resp = getWith(t, st.app1.URL+"/burn?iterations=-5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", decodeJSON(t, resp.Body)["digest"])

	for _, bad := range []string{"abc", "5000001"} {
		resp = getWith(t, st.app1.URL+"/burn?iterations="+bad, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, bad)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	st := newStack(t)
	for _, base := range []string{st.auth.URL, st.app1.URL, st.app2.URL} {
		resp := getWith(t, base+"/healthz", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decodeJSON(t, resp.Body)["status"])

		resp = getWith(t, base+"/metrics", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestCORSAllowsCredentials(t *testing.T) {
	st := newStack(t)
	req, err := http.NewRequest(http.MethodOptions, st.auth.URL+"/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8003")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:8003", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestRequestIDHeader(t *testing.T) {
	st := newStack(t)
	resp := getWith(t, st.app2.URL+"/", nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

// TestConsoleAgainstServices drives the console's HTTP client through a
// full session against the demo services.
func TestConsoleAgainstServices(t *testing.T) {
	st := newStack(t)
	c, err := client.NewHTTPClient(client.Endpoints{
		Auth: st.auth.URL,
		App1: st.app1.URL,
		App2: st.app2.URL,
	}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Fetch(ctx, client.App1Root)
	require.Error(t, err, "app1 must reject anonymous calls")

	body, err := c.Fetch(ctx, client.App2Root)
	require.NoError(t, err)
	assert.Equal(t, `{"message":"Hello from FastAPI App 2!"}`, body)

	require.Error(t, c.Login(ctx, client.Credentials{Username: "alice", Password: "nope"}))
	require.NoError(t, c.Login(ctx, client.Credentials{Username: "alice", Password: "wonderland"}))

	body, err = c.Fetch(ctx, client.App1Root)
	require.NoError(t, err)
	assert.Equal(t, `{"message":"Hello from Kubernetes, alice!!!!!"}`, body)

	body, err = c.Fetch(ctx, client.App2ViaApp1)
	require.NoError(t, err)
	assert.Equal(t, `{"message":"Hello from FastAPI App 1 (with configmap)","app2_response":{"message":"Hello from FastAPI App 2!"}}`, body)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Fetch(ctx, client.App1Root)
	assert.Error(t, err)
}
