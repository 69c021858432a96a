package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"finassist/internal/auth"
	"finassist/internal/log"
	"finassist/internal/middleware/cors"
	"finassist/internal/middleware/ratelimit"
	"finassist/internal/middleware/security"
	"finassist/internal/middleware/trace"
	"finassist/internal/services"
)

// Services are the application services the handlers delegate to.
type Services struct {
	Finance *services.FinanceService
	Auth    *services.AuthService
	Chat    *services.ChatService
}

// Options tune the middleware chain.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	// Logger seeds every request context. Nil uses the process default.
	Logger *log.Logger
}

// Server is the JSON API. Handler is the full middleware chain.
type Server struct {
	http.Server

	finance *services.FinanceService
	auth    *services.AuthService
	chat    *services.ChatService

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	startTime    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	detector := security.NewDetector()
	s := &Server{
		finance:   svc.Finance,
		auth:      svc.Auth,
		chat:      svc.Chat,
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = jsonErrors(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = cors.Middleware(opts.CORSOrigins)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.ComponentMiddleware(log.ComponentHTTP)(handler)
	if opts.Logger != nil {
		handler = log.Middleware(opts.Logger)(handler)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Plan and chat responses wait on the text generator.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/profile", s.requireAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /auth/profile", s.requireAuth(s.handleUpdateProfile))

	mux.HandleFunc("POST /finance/income", s.requireAuth(s.handleCreateIncome))
	mux.HandleFunc("GET /finance/income", s.requireAuth(s.handleListIncomes))
	mux.HandleFunc("PUT /finance/income/{id}", s.requireAuth(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /finance/income/{id}", s.requireAuth(s.handleDeleteIncome))

	mux.HandleFunc("POST /finance/expenses", s.requireAuth(s.handleCreateExpense))
	mux.HandleFunc("GET /finance/expenses", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("PUT /finance/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /finance/expenses/{id}", s.requireAuth(s.handleDeleteExpense))

	mux.HandleFunc("POST /finance/budget", s.requireAuth(s.handleSetBudget))
	mux.HandleFunc("GET /finance/budget/{month}", s.requireAuth(s.handleGetBudget))
	mux.HandleFunc("POST /finance/budget/auto", s.requireAuth(s.handleAutoBudget))
	mux.HandleFunc("POST /finance/budget_plan", s.requireAuth(s.handleBudgetPlan))
	mux.HandleFunc("GET /finance/summary/{month}", s.requireAuth(s.handleSummary))
	mux.HandleFunc("GET /finance/history", s.requireAuth(s.handleHistory))
	mux.HandleFunc("GET /finance/notifications", s.requireAuth(s.handleNotifications))

	mux.HandleFunc("POST /chat", s.requireAuth(s.handleChat))
	mux.HandleFunc("POST /chat/{$}", s.requireAuth(s.handleChat))
	mux.HandleFunc("POST /chat/generate", s.requireAuth(s.handleChat))
	mux.HandleFunc("GET /chat/history", s.requireAuth(s.handleChatHistory))
}

// Shutdown gracefully shuts down the server and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()

		m := s.tracer.GetMetrics()
		slog.InfoContext(ctx, "HTTP server shutting down",
			"total_requests", m.TotalRequests,
			"server_errors", m.ServerErrors,
			"rate_limited", s.limiter.GetMetrics().Rejected,
			"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests)

		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requireAuth resolves the bearer token and stores the user id in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.auth.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, "authenticate", err)
			return
		}
		next(w, r.WithContext(auth.WithUserID(r.Context(), id)))
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		"component", "rate_limit",
		"client_ip", s.detector.ExtractClientIP(r),
		"path", r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// jsonErrors rewrites the mux's plain-text 404 and 405 replies as JSON.
func jsonErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&jsonErrorWriter{ResponseWriter: w}, r)
	})
}

type jsonErrorWriter struct {
	http.ResponseWriter
	replaced bool
}

func (w *jsonErrorWriter) WriteHeader(code int) {
	h := w.Header()
	if code >= 400 && strings.HasPrefix(h.Get("Content-Type"), "text/plain") {
		w.replaced = true
		h.Set("Content-Type", "application/json")
		h.Del("Content-Length")
		w.ResponseWriter.WriteHeader(code)
		_ = json.NewEncoder(w.ResponseWriter).Encode(map[string]string{"detail": http.StatusText(code)})
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *jsonErrorWriter) Write(b []byte) (int, error) {
	if w.replaced {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}
