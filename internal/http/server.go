package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/remote"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
	appweb "expensetracker/web"
)

// APIFactory binds a remote client to one browser session.
type APIFactory func(sess *session.Session) remote.API

// Options are the tunables of the page server.
type Options struct {
	Addr            string
	CookieSecure    bool
	SessionMaxAge   time.Duration
	DefaultPageSize int
	LoginRateLimit  int
}

// Deps are the collaborators the pages run on.
type Deps struct {
	Sessions  session.Store
	NewAPI    APIFactory
	Publisher services.ActivityPublisher
	// Ready reports whether the session store is usable; nil means always.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// Now is the clock used by the session guard and the default report period.
	Now func() time.Time
}

type appMetrics struct {
	uptime        time.Time
	logins        int64
	loginFailures int64
	mutations     int64
}

// Server renders the expense pages.
type Server struct {
	http.Server
	pages     map[string]*template.Template
	sessions  session.Store
	newAPI    APIFactory
	publisher services.ActivityPublisher
	ready     func(ctx context.Context) error
	logger    *log.Logger
	opts      Options
	now       func() time.Time

	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	rateLimiter      *ratelimit.Limiter
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.NewAPI == nil {
		return nil, fmt.Errorf("new server: API factory is required")
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStore()
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ready == nil {
		deps.Ready = func(context.Context) error { return nil }
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 7 * 24 * time.Hour
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(deps.Logger)

	s := &Server{
		pages:            pages,
		sessions:         deps.Sessions,
		newAPI:           deps.NewAPI,
		publisher:        deps.Publisher,
		ready:            deps.Ready,
		logger:           logger,
		opts:             opts,
		now:              deps.Now,
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			Limit:  opts.LoginRateLimit,
			Window: time.Minute,
		}),
		appMetrics: &appMetrics{uptime: deps.Now()},
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.Handle("POST /register", limited(http.HandlerFunc(s.handleRegister)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireAuth(s.handleDashboard))
	mux.HandleFunc("GET /expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("GET /expenses/new", s.requireAuth(s.handleNewExpense))
	mux.HandleFunc("POST /expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/{id}", s.requireAuth(s.handleEditExpense))
	mux.HandleFunc("POST /expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("POST /expenses/{id}/delete", s.requireAuth(s.handleDeleteExpense))
	mux.HandleFunc("GET /reports", s.requireAuth(s.handleReports))
	mux.HandleFunc("GET /reports/export.xlsx", s.requireAuth(s.handleExportXLSX))
	mux.HandleFunc("GET /reports/export.pdf", s.requireAuth(s.handleExportPDF))

	mux.HandleFunc("/", s.handleNotFound)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = log.Middleware(deps.Logger, trace.GetRequestID)(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
