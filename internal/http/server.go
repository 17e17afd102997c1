package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/receipts"
	"spendlog/internal/services"
)

// ExpenseAPI is the expense use-case surface the handlers call.
type ExpenseAPI interface {
	CreateExpense(ctx context.Context, owner core.Identity, in core.ExpenseInput) (core.Expense, error)
	GetExpense(ctx context.Context, owner core.Identity, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) (core.ExpensePage, error)
	ExportExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) ([]core.Expense, error)
	SummarizeExpenses(ctx context.Context, owner core.Identity, f core.ExpenseFilter) (core.ExpenseSummary, error)
	UpdateExpense(ctx context.Context, owner core.Identity, id string, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, owner core.Identity, id string) error
}

// AccountAPI is the session and profile surface the handlers call.
type AccountAPI interface {
	Register(ctx context.Context, name, email, password string) (core.User, error)
	Authenticate(ctx context.Context, email, password string) (services.Session, error)
	Authorize(ctx context.Context, token string) (core.Identity, error)
	SignOut(ctx context.Context, id core.Identity) error
	Profile(ctx context.Context, id core.Identity) (core.User, error)
	UpdateProfile(ctx context.Context, id core.Identity, name, email string) (core.User, error)
	ChangePassword(ctx context.Context, id core.Identity, current, next string) error
}

// ReceiptFiles resolves stored receipt names to files on disk.
type ReceiptFiles interface {
	Path(name string) (string, error)
}

// HealthChecker reports whether a dependency can serve requests.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

var (
	_ ExpenseAPI   = (*services.ExpenseService)(nil)
	_ AccountAPI   = (*services.AccountService)(nil)
	_ ReceiptFiles = (*receipts.LocalStore)(nil)
)

// Deps are the collaborators a Server is built from. LocalReceipts is nil
// when receipts are hosted elsewhere.
type Deps struct {
	Expenses      ExpenseAPI
	Accounts      AccountAPI
	Receipts      receipts.Store
	LocalReceipts ReceiptFiles
	Health        HealthChecker
	Limiter       ratelimit.Allower
	Logger        *applog.Logger
}

// Options tune request handling.
type Options struct {
	DefaultPageSize int
	ReceiptMaxBytes int64
	SecureCookies   bool
	TrustedProxies  []string
}

type Server struct {
	http.Server
	expenses      ExpenseAPI
	accounts      AccountAPI
	receipts      receipts.Store
	localReceipts ReceiptFiles
	health        HealthChecker
	logger        *applog.Logger
	detector      *security.Detector
	metrics       *metrics
	opts          Options

	shutdownOnce sync.Once
}

// unlimitedPaths bypass rate limiting so probes and scrapes never see 429.
var unlimitedPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

const receiptCacheSeconds = 86400

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = core.DefaultPageSize
	}
	if opts.ReceiptMaxBytes <= 0 {
		opts.ReceiptMaxBytes = 5 << 20
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		expenses:      deps.Expenses,
		accounts:      deps.Accounts,
		receipts:      deps.Receipts,
		localReceipts: deps.LocalReceipts,
		health:        deps.Health,
		logger:        logger,
		detector:      detector,
		metrics:       newMetrics(detector),
		opts:          opts,
	}

	s.handle(mux, "GET /healthz", handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	s.handle(mux, "POST /signup", s.handleSignUp)
	s.handle(mux, "POST /authenticate", s.handleAuthenticate)
	s.handle(mux, "POST /signout", s.requireAuth(s.handleSignOut))
	s.handle(mux, "GET /profile", s.requireAuth(s.handleGetProfile))
	s.handle(mux, "PATCH /profile", s.requireAuth(s.handleUpdateProfile))
	s.handle(mux, "PATCH /change-password", s.requireAuth(s.handleChangePassword))

	s.handle(mux, "GET /expenses", s.requireAuth(s.handleListExpenses))
	s.handle(mux, "POST /expenses", s.requireAuth(s.handleCreateExpense))
	s.handle(mux, "GET /expenses/summary", s.requireAuth(s.handleExpenseSummary))
	s.handle(mux, "GET /expenses/export", s.requireAuth(s.handleExportExpenses))
	s.handle(mux, "GET /expenses/{id}", s.requireAuth(s.handleGetExpense))
	s.handle(mux, "PUT /expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	s.handle(mux, "DELETE /expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	s.handle(mux, "POST /upload/receipt", s.requireAuth(s.handleUploadReceipt))
	if s.localReceipts != nil {
		mux.Handle("GET /receipts/{name}", s.metrics.instrument("GET /receipts/{name}",
			security.StaticAssetMiddleware(receiptCacheSeconds)(http.HandlerFunc(s.handleServeReceipt))))
	}

	var handler http.Handler = s.recoverer(mux)
	if deps.Limiter != nil {
		limited := ratelimit.Middleware(deps.Limiter, detector.ExtractClientIP, s.onRateLimit)(handler)
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unlimitedPaths[r.URL.Path] {
				inner.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
	handler = detector.Middleware(s.onSuspicious)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(detector.ExtractClientIP, logger).Middleware(handler)
	s.Handler = handler

	return s, nil
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.instrument(pattern, h))
}

// Shutdown gracefully shuts down the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// recoverer turns a handler panic into a 500 and logs the stack.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
				applog.FieldError, fmt.Sprint(rec),
				applog.FieldErrorType, applog.ErrorTypeInternal,
				"stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.metrics.rateLimitHits.Inc()
	s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
}

func (s *Server) onSuspicious(r *http.Request) {
	s.logger.WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.UserAgent())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
