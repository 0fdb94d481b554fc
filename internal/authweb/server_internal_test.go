package authweb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authCall struct {
	chatID int64
	token  string
}

type fakeAuthenticator struct {
	mu    sync.Mutex
	calls []authCall
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, chatID int64, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, authCall{chatID: chatID, token: token})
}

func newTestServer(t *testing.T, cfg Config) (*Server, *fakeAuthenticator) {
	t.Helper()

	auth := &fakeAuthenticator{}
	srv, err := New(cfg, auth, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return srv, auth
}

func callbackConfig() Config {
	return Config{
		AuthURL:     "https://rotur.dev/auth",
		ReturnParam: "return_to",
		CallbackURL: "https://bot.example.com/auth/callback",
		Secret:      "secret",
		BotUsername: "clawgram_bot",
	}
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func stateFromLoginURL(t *testing.T, login string) string {
	t.Helper()

	parsed, err := url.Parse(login)
	require.NoError(t, err)

	callback, err := url.Parse(parsed.Query().Get("return_to"))
	require.NoError(t, err)
	assert.Equal(t, "bot.example.com", callback.Host)

	return callback.Query().Get("state")
}

func TestLoginURLWithoutCallbackIsAuthURL(t *testing.T) {
	srv, _ := newTestServer(t, Config{AuthURL: "https://rotur.dev/auth"})

	assert.Equal(t, "https://rotur.dev/auth", srv.LoginURL(42))
}

func TestCallbackAuthenticatesChatAndRedirects(t *testing.T) {
	srv, auth := newTestServer(t, callbackConfig())
	state := stateFromLoginURL(t, srv.LoginURL(42))
	require.NotEmpty(t, state)

	rec := get(t, srv.Routes(), "/auth/callback?state="+url.QueryEscape(state)+"&token=tok")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://t.me/clawgram_bot", rec.Header().Get("Location"))
	assert.Equal(t, []authCall{{chatID: 42, token: "tok"}}, auth.calls)
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	srv, auth := newTestServer(t, callbackConfig())
	state := stateFromLoginURL(t, srv.LoginURL(7))
	target := "/auth/callback?state=" + url.QueryEscape(state) + "&token=tok"

	require.Equal(t, http.StatusFound, get(t, srv.Routes(), target).Code)
	assert.Equal(t, http.StatusConflict, get(t, srv.Routes(), target).Code)
	assert.Len(t, auth.calls, 1)
}

func TestCallbackRejectsBadRequests(t *testing.T) {
	srv, auth := newTestServer(t, callbackConfig())

	tests := map[string]string{
		"missing token": "/auth/callback?state=abc",
		"missing state": "/auth/callback?token=tok",
		"forged state":  "/auth/callback?state=abc&token=tok",
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(t, srv.Routes(), target).Code)
		})
	}

	assert.Empty(t, auth.calls)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, callbackConfig())

	rec := get(t, srv.Routes(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestNewRequiresSecretWithCallback(t *testing.T) {
	cfg := callbackConfig()
	cfg.Secret = ""

	_, err := New(cfg, &fakeAuthenticator{}, slog.Default())
	assert.Error(t, err)
}
