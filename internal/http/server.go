package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"boutique/internal/auth"
	"boutique/internal/core"
	"boutique/internal/log"
	"boutique/internal/middleware/ratelimit"
	"boutique/internal/middleware/security"
	"boutique/internal/middleware/trace"
)

// RecordWriter runs validated writes against the ledgers.
type RecordWriter interface {
	AddSale(ctx context.Context, sale core.Sale) (core.Sale, error)
	AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error)
	AddOrder(ctx context.Context, order core.TailoringOrder) (core.TailoringOrder, error)
	UpdateOrder(ctx context.Context, id string, paymentReceived core.Money, status core.OrderStatus) (core.TailoringOrder, error)
	AddDesign(ctx context.Context, design core.Design) (core.Design, error)
}

// RecordReader serves the cached ledgers, newest first.
type RecordReader interface {
	Sales() []core.Sale
	Expenses() []core.Expense
	Orders() []core.TailoringOrder
	Designs() []core.Design
	Loading() bool
}

// Options tune the transport. Zero values pick the defaults.
type Options struct {
	Addr           string
	SecureCookies  bool
	LoginRateLimit ratelimit.Config
	TrustedProxies []string
}

// Server is the boutique API server.
type Server struct {
	http.Server

	records RecordWriter
	store   RecordReader
	auth    *auth.Service
	logger  *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time
	started  time.Time

	secureCookies bool
	shutdownOnce  sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, records RecordWriter, store RecordReader, authSvc *auth.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.LoginRateLimit.Requests == 0 {
		opts.LoginRateLimit = ratelimit.DefaultConfig()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		records:       records,
		store:         store,
		auth:          authSvc,
		logger:        logger,
		limiter:       ratelimit.NewLimiter(opts.LoginRateLimit),
		detector:      security.NewDetector(),
		now:           time.Now,
		started:       time.Now(),
		secureCookies: opts.SecureCookies,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(logger)(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	login := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Login rate limit exceeded", log.FieldClientIP, s.detector.ExtractClientIP(r))
		TooManyRequestsError().Write(w)
	})
	mux.Handle("POST /auth/login", login(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /auth/logout", s.auth.Authenticate(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /auth/me", s.auth.Authenticate(http.HandlerFunc(s.handleMe)))

	gate := func(c auth.Capability, h http.HandlerFunc) http.Handler {
		return s.auth.RequireCapability(c)(h)
	}
	mux.Handle("GET /sales", gate(auth.ViewSales, s.handleListSales))
	mux.Handle("POST /sales", gate(auth.ViewSales, s.handleCreateSale))
	mux.Handle("GET /expenses", gate(auth.ViewExpenses, s.handleListExpenses))
	mux.Handle("POST /expenses", gate(auth.ViewExpenses, s.handleCreateExpense))
	mux.Handle("GET /tailoring", gate(auth.ManageOrders, s.handleListOrders))
	mux.Handle("POST /tailoring", gate(auth.ManageOrders, s.handleCreateOrder))
	mux.Handle("PATCH /tailoring/{id}", gate(auth.ManageOrders, s.handleUpdateOrder))
	mux.Handle("GET /designs", gate(auth.ViewDesigns, s.handleListDesigns))
	mux.Handle("POST /designs", gate(auth.ViewDesigns, s.handleCreateDesign))
	mux.Handle("GET /analysis", gate(auth.ViewAnalysis, s.handleAnalysis))
	mux.Handle("GET /analysis/export.xlsx", gate(auth.ViewAnalysis, s.handleExport))
	mux.Handle("GET /{$}", gate(auth.ViewDashboard, s.handleDashboard))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
}

// Shutdown drains in-flight requests and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
