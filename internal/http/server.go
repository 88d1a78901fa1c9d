// Package http exposes the chat engine, chat sessions and the expense
// collection as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/middleware/ratelimit"
	"famspend/internal/middleware/security"
	"famspend/internal/middleware/trace"
	"famspend/internal/store"
)

// Checker is pinged by /readyz.
type Checker interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers run against.
type Deps struct {
	Engine   chat.Engine
	Sessions *chat.Manager
	Store    store.ExpenseStore
	Money    *core.Formatter
	Checks   map[string]Checker
	Now      func() time.Time
}

type Options struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server

	engine   chat.Engine
	sessions *chat.Manager
	store    store.ExpenseStore
	money    *core.Formatter
	checks   map[string]Checker
	now      func() time.Time
	logger   *log.Logger
	events   *log.StructuredLogger

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

func NewServer(opts Options, deps Deps) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if deps.Money == nil {
		deps.Money = core.DefaultFormatter()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:   deps.Engine,
		sessions: deps.Sessions,
		store:    deps.Store,
		money:    deps.Money,
		checks:   deps.Checks,
		now:      deps.Now,
		logger:   logger,
		events:   log.NewStructuredLogger(logger),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	detector := security.NewDetector(s.logger)
	tracer := trace.NewMiddleware(detector.ExtractClientIP, s.logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := postOnly(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
	}))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(trace.FromRequest))
	r.Use(headers.Middleware)
	r.Use(detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(requireIdentity)
		r.Use(limit)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/expense", s.handleChatExpense)
			r.Post("/query", s.handleChatQuery)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleCreateSession)
				r.Get("/{id}", s.handleGetSession)
				r.Delete("/{id}", s.handleDeleteSession)
				r.Post("/{id}/messages", s.handleSubmit)
				r.Post("/{id}/refresh", s.handleRefresh)
				r.Post("/{id}/reset", s.handleReset)
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", s.handleCreateExpense)
			r.Get("/", s.handleListExpenses)
			r.Get("/family", s.handleListFamilyExpenses)
			r.Get("/stats", s.handleExpenseStats)
		})
	})

	return r
}

// postOnly applies mw to POST requests and lets everything else through.
func postOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Shutdown stops the listener and the rate limiter janitor.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, log.FieldError, err)
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": results})
}
