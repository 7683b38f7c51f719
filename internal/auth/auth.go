// Package auth signs users in, keeps server-side sessions and hands the
// authenticated user to handlers explicitly.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Mode selects how users prove who they are.
type Mode string

const (
	ModeGoogle Mode = "google"
	ModeDev    Mode = "dev"
)

const (
	SessionCookie = "fintrack_session"
	stateCookie   = "fintrack_oauth_state"

	DefaultSessionTTL = 7 * 24 * time.Hour
	tokenBytes        = 32
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrInvalidState = errors.New("invalid oauth state")
	ErrWrongMode    = errors.New("login method not enabled")
	ErrInvalidEmail = errors.New("invalid email address")
)

// AuthedHandler receives the signed-in user as an argument.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

type Options struct {
	Mode          Mode
	Google        *GoogleProvider
	SessionTTL    time.Duration
	SecureCookies bool
	Logger        *slog.Logger
}

type Service struct {
	store  storage.SessionStore
	mode   Mode
	google *GoogleProvider
	ttl    time.Duration
	secure bool
	logger *slog.Logger
	now    func() time.Time
}

func New(store storage.SessionStore, opts Options) (*Service, error) {
	s := &Service{
		store:  store,
		mode:   opts.Mode,
		google: opts.Google,
		ttl:    opts.SessionTTL,
		secure: opts.SecureCookies,
		logger: opts.Logger,
		now:    time.Now,
	}
	if s.mode == "" {
		return nil, errors.New("auth mode is required")
	}
	if s.mode != ModeDev && s.mode != ModeGoogle {
		return nil, fmt.Errorf("unknown auth mode %q", s.mode)
	}
	if s.mode == ModeGoogle && s.google == nil {
		return nil, errors.New("google auth mode needs a provider")
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.logger == nil {
		s.logger = slog.Default().With(log.FieldComponent, log.ComponentAuth)
	}
	return s, nil
}

func (s *Service) Mode() Mode { return s.mode }

// NewToken returns a random URL-safe token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// BeginLogin stores a fresh state cookie and returns the provider URL to
// redirect to.
func (s *Service) BeginLogin(w http.ResponseWriter) (string, error) {
	if s.mode != ModeGoogle {
		return "", ErrWrongMode
	}
	state, err := NewToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s.google.AuthCodeURL(state), nil
}

// CompleteLogin finishes the OAuth code flow started by BeginLogin.
func (s *Service) CompleteLogin(ctx context.Context, w http.ResponseWriter, r *http.Request) (core.User, error) {
	if s.mode != ModeGoogle {
		return core.User{}, ErrWrongMode
	}
	c, err := r.Cookie(stateCookie)
	q := r.URL.Query()
	if err != nil || c.Value == "" || q.Get("state") != c.Value {
		return core.User{}, ErrInvalidState
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	if e := q.Get("error"); e != "" {
		return core.User{}, fmt.Errorf("provider returned %q", e)
	}
	u, err := s.google.Exchange(ctx, q.Get("code"))
	if err != nil {
		return core.User{}, err
	}
	if err := s.StartSession(ctx, w, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// DevLogin trusts the given email. Only available in dev mode.
func (s *Service) DevLogin(ctx context.Context, w http.ResponseWriter, email string) (core.User, error) {
	if s.mode != ModeDev {
		return core.User{}, ErrWrongMode
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return core.User{}, ErrInvalidEmail
	}
	address := strings.ToLower(addr.Address)
	u := core.User{ID: "dev-" + address, Email: address, Name: addr.Name}
	if err := s.StartSession(ctx, w, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// StartSession records u and sets the session cookie.
func (s *Service) StartSession(ctx context.Context, w http.ResponseWriter, u core.User) error {
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	token, err := NewToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.ttl)
	if err := s.store.SaveSession(ctx, storage.Session{Token: token, UserID: u.ID, ExpiresAt: expires}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.InfoContext(ctx, "Session started", log.FieldOwner, u.ID, "mode", s.mode)
	return nil
}

// CurrentUser resolves the session cookie on r.
func (s *Service) CurrentUser(r *http.Request) (core.User, error) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return core.User{}, ErrNoSession
	}
	sess, err := s.store.GetSession(r.Context(), c.Value)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrNoSession
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get session: %w", err)
	}
	u, err := s.store.GetUser(r.Context(), sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrNoSession
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Logout deletes the server-side session and expires the cookie.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.secure})
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, c.Value); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Require calls next with the signed-in user. Anonymous HTMX requests get an
// HX-Redirect to the login page, others a 303.
func (s *Service) Require(next AuthedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.CurrentUser(r)
		if err != nil {
			if !errors.Is(err, ErrNoSession) {
				s.logger.ErrorContext(r.Context(), "Session lookup failed", log.FieldError, err)
			}
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/auth/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next(w, r, u)
	})
}
