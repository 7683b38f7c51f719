package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	appweb "fintrack/web"
)

// Ledger is what the handlers need from the ledger service. The owner is
// always passed explicitly.
type Ledger interface {
	AddExpense(ctx context.Context, owner string, amount core.Money, description string) (core.Expense, error)
	AddIncome(ctx context.Context, owner string, amount core.Money, description string) (core.Income, error)
	DeleteExpense(ctx context.Context, owner, id string) error
	DeleteIncome(ctx context.Context, owner, id string) error
	Snapshot(ctx context.Context, owner string) (core.Ledger, error)
	Summary(ctx context.Context, owner string, year int) (core.Summary, error)
	Ask(ctx context.Context, owner, query string) (string, error)
	Year() int
}

// Options tune the server. The zero value is usable.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Ready reports whether backing services are reachable.
	Ready   func(ctx context.Context) error
	Headers *security.HeadersConfig
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	auth      *auth.Service
	logger    *log.Logger

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(ctx context.Context) error
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, authSvc *auth.Service, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}
	headers := security.DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	mux := http.NewServeMux()
	s := &Server{
		templates: t,
		ledger:    ledger,
		auth:      authSvc,
		logger:    logger,
		detector:  security.NewDetector(),
		limiter:   ratelimit.NewLimiter(rl),
		ready:     opts.Ready,
		started:   time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/google", s.handleGoogleLogin)
	mux.HandleFunc("/auth/callback", s.handleCallback)
	mux.HandleFunc("/auth/logout", s.handleLogout)

	mux.Handle("/", authSvc.Require(s.handleIndex))
	mux.Handle("/expenses", authSvc.Require(s.handleCreateExpense))
	mux.Handle("/expenses/delete", authSvc.Require(s.handleDeleteExpense))
	mux.Handle("/incomes", authSvc.Require(s.handleCreateIncome))
	mux.Handle("/incomes/delete", authSvc.Require(s.handleDeleteIncome))
	mux.Handle("/ui/summary", authSvc.Require(s.handleSummaryPartial))
	mux.Handle("/ui/entries", authSvc.Require(s.handleEntriesPartial))
	mux.Handle("/api/summary", authSvc.Require(s.handleSummaryJSON))
	mux.Handle("/chat", authSvc.Require(s.handleChat))

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, slow down a little").
		TriggerErrorNotification("Too many requests, please wait a moment").
		Write(w)
}

// render executes a named template into a buffer so that a failing template
// turns into a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		InternalServerError("Could not render the page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
