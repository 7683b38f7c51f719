package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func protected(s *Service) http.Handler {
	return s.Require(func(w http.ResponseWriter, _ *http.Request, u core.User) {
		_, _ = w.Write([]byte("hello " + u.ID))
	})
}

func TestNew(t *testing.T) {
	store := memory.New()
	_, err := New(store, Options{Mode: "saml"})
	assert.Error(t, err)
	_, err = New(store, Options{Mode: ModeGoogle})
	assert.Error(t, err)

	_, err = New(store, Options{})
	assert.Error(t, err, "an unset mode never falls back to dev sign-in")

	s, err := New(store, Options{Mode: ModeDev})
	require.NoError(t, err)
	assert.Equal(t, ModeDev, s.Mode())
	assert.Equal(t, DefaultSessionTTL, s.ttl)
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43, "32 bytes in unpadded base64")
}

func TestDevLoginRequireLogout(t *testing.T) {
	ctx := context.Background()
	s, err := New(memory.New(), Options{Mode: ModeDev})
	require.NoError(t, err)

	// Anonymous requests are sent to the login page.
	rec := httptest.NewRecorder()
	protected(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	protected(s).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("HX-Redirect"))

	_, err = s.DevLogin(ctx, httptest.NewRecorder(), "not an email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	rec = httptest.NewRecorder()
	u, err := s.DevLogin(ctx, rec, "Ana <Ana@Example.com>")
	require.NoError(t, err)
	assert.Equal(t, "dev-ana@example.com", u.ID)
	assert.Equal(t, "Ana", u.Name)
	session := cookieFrom(t, rec, SessionCookie)
	assert.True(t, session.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	protected(s).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello dev-ana@example.com", rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(session)
	require.NoError(t, s.Logout(ctx, httptest.NewRecorder(), req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	_, err = s.CurrentUser(req)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = s.BeginLogin(httptest.NewRecorder())
	assert.ErrorIs(t, err, ErrWrongMode)
}

func TestExpiredSession(t *testing.T) {
	store := memory.New()
	s, err := New(store, Options{SessionTTL: time.Minute})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	rec := httptest.NewRecorder()
	_, err = s.DevLogin(context.Background(), rec, "old@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFrom(t, rec, SessionCookie))
	_, err = s.CurrentUser(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func newGoogleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1234","email":"ana@example.com","name":"Ana"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleLogin(t *testing.T) {
	ctx := context.Background()
	srv := newGoogleServer(t)
	provider := NewGoogleProvider("client", "secret", "http://localhost/auth/callback",
		WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}),
		WithAPIOptions(option.WithEndpoint(srv.URL+"/")),
	)
	s, err := New(memory.New(), Options{Mode: ModeGoogle, Google: provider})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	target, err := s.BeginLogin(rec)
	require.NoError(t, err)
	state := cookieFrom(t, rec, stateCookie)
	parsed, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, state.Value, parsed.Query().Get("state"))
	assert.True(t, strings.HasPrefix(target, srv.URL+"/auth"))

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=forged&code=good-code", nil)
		req.AddCookie(state)
		_, err := s.CompleteLogin(ctx, httptest.NewRecorder(), req)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("bad code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state.Value+"&code=bad", nil)
		req.AddCookie(state)
		_, err := s.CompleteLogin(ctx, httptest.NewRecorder(), req)
		assert.ErrorContains(t, err, "token exchange")
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state.Value+"&code=good-code", nil)
		req.AddCookie(state)
		rec := httptest.NewRecorder()
		u, err := s.CompleteLogin(ctx, rec, req)
		require.NoError(t, err)
		assert.Equal(t, core.User{ID: "google-1234", Email: "ana@example.com", Name: "Ana"}, u)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookieFrom(t, rec, SessionCookie))
		got, err := s.CurrentUser(req)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	_, err = s.DevLogin(ctx, httptest.NewRecorder(), "x@example.com")
	assert.ErrorIs(t, err, ErrWrongMode)
}
