// Package api exposes the goal engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"wealth-planner/internal/engine"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/observability"
)

// Options for creating a Server.
type Options struct {
	Service *engine.Service
	Metrics *observability.Metrics
	Logger  *zap.Logger

	// StreamWriteTimeout bounds each websocket frame write, default 10s.
	StreamWriteTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	svc          *engine.Service
	metrics      *observability.Metrics
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewServer creates a new Server.
func NewServer(opts Options) *Server {
	s := &Server{
		svc:          opts.Service,
		metrics:      opts.Metrics,
		logger:       logger.OrNop(opts.Logger),
		writeTimeout: opts.StreamWriteTimeout,
	}
	if s.writeTimeout <= 0 {
		s.writeTimeout = 10 * time.Second
	}
	return s
}

// Router builds the chi router with all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Operational routes
	r.Get("/health", handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard/goals", s.handleDashboard)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)

			r.Route("/{goalID}", func(r chi.Router) {
				r.Get("/", s.handleGetGoal)
				r.Put("/", s.handleUpdateGoal)
				r.Delete("/", s.handleDeleteGoal)

				r.Get("/status", s.handleExplainStatus)
				r.Get("/allocations", s.handleGetAllocations)
				r.Put("/allocations", s.handleSetAllocations)
				r.Post("/simulate", s.handleSimulate)
				r.Get("/simulate/stream", s.handleSimulateStream)
				r.Get("/simulations", s.handleListSimulations)
				r.Get("/rescue-strategies", s.handleRescue)
				r.Get("/projection", s.handleProjection)
				r.Get("/history", s.handleHistory)
			})
		})

		r.Get("/simulations/{simulationID}", s.handleGetSimulation)
	})

	return r
}

// requestLogger logs each request and records its latency by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.ObserveHTTP(r.Method, route, code, elapsed.Seconds())
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", code),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
