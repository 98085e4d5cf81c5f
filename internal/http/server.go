// Package http serves the expense dashboard, the entry forms, the XLSX export and a
// small JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
	appweb "expensetracker/web"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *slog.Logger

	expenses *services.ExpenseService
	reports  *services.ReportService
	store    Pinger

	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ipResolver *security.ClientIPResolver

	currency       string
	rateLimit      int
	trustedProxies []string
	now            func() time.Time
	startedAt      time.Time
	metrics        appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
	exports atomic.Int64
}

type Option func(*Server)

// WithCurrencySymbol sets the symbol used when rendering amounts.
func WithCurrencySymbol(symbol string) Option {
	return func(s *Server) { s.currency = symbol }
}

// WithRateLimit caps mutating requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTrustedProxies trusts forwarding headers from the given CIDRs in addition
// to loopback and private ranges.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) { s.trustedProxies = cidrs }
}

// WithClock fixes "today" for form defaults and export names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes, middleware and templates.
func NewServer(addr string, expenses *services.ExpenseService, reports *services.ReportService, store Pinger, opts ...Option) *Server {
	s := &Server{
		expenses:   expenses,
		reports:    reports,
		store:      store,
		ipResolver: security.NewClientIPResolver(),
		currency:   "₹",
		rateLimit:  ratelimit.DefaultConfig().RequestsPerMinute,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	for _, cidr := range s.trustedProxies {
		if err := s.ipResolver.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Error("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /expenses/new", s.handleNewExpenseForm)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/edit", s.handleEditExpenseForm)
	mux.HandleFunc("POST /expenses/update", s.handleUpdateExpense)
	mux.HandleFunc("POST /expenses/delete", s.handleDeleteExpense)
	mux.HandleFunc("GET /expenses/export.xlsx", s.handleExportXLSX)

	mux.HandleFunc("GET /api/expenses", s.handleAPIListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleAPICreateExpense)
	mux.HandleFunc("GET /api/expenses/item", s.handleAPIGetExpense)
	mux.HandleFunc("PUT /api/expenses/item", s.handleAPIUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/item", s.handleAPIDeleteExpense)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimit})
	s.tracer = trace.NewMiddleware(s.logger, s.ipResolver.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.ipResolver.ClientIP, ratelimit.Mutating, s.handleRateLimited)(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(s.currency) },
		"pct":   func(p decimal.Decimal) string { return p.StringFixed(1) + "%" },
		"fieldError": func(errs core.FieldErrors, field string) string {
			return errs[field]
		},
		// Colors come from core.CategoryColors, never from user input.
		"cssColor": func(c string) template.CSS { return template.CSS(c) },
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err,
			"template", name)
		InternalServerError("Something went wrong rendering this page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	const msg = "Rate limit exceeded. Please try again later."
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		writeJSON(w, http.StatusTooManyRequests, errorJSON{Error: msg})
	case isHTMX(r):
		TooManyRequestsError(msg).TriggerErrorNotification(msg).Write(w)
	default:
		TooManyRequestsError(msg).Write(w)
	}
}
