package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chemviz/internal/metrics"
)

// healthCheckTimeout bounds /healthz; the profiler runs for as long as it is asked to
const healthCheckTimeout = 10 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsApp serves health, metrics and profiling endpoints on a private listener
type OpsApp struct {
	router        *chi.Mux
	db            Pinger
	metrics       *metrics.Metrics
	healthTimeout time.Duration
}

// NewOpsApp builds the ops router. db may be nil when running without a database.
func NewOpsApp(db Pinger, m *metrics.Metrics) *OpsApp {
	return newOpsApp(db, m, healthCheckTimeout)
}

func newOpsApp(db Pinger, m *metrics.Metrics, healthTimeout time.Duration) *OpsApp {
	app := &OpsApp{
		router:        chi.NewRouter(),
		db:            db,
		metrics:       m,
		healthTimeout: healthTimeout,
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// Handler returns the HTTP handler serving the ops endpoints
func (a *OpsApp) Handler() http.Handler {
	return a.router
}

func (a *OpsApp) setupMiddleware() {
	a.router.Use(middleware.Recoverer)
}

func (a *OpsApp) setupRoutes() {
	a.router.With(middleware.Timeout(a.healthTimeout)).Get("/healthz", a.handleHealth)
	a.router.Handle("/metrics", a.metrics.Handler())
	a.router.Mount("/debug", middleware.Profiler())
}

func (a *OpsApp) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK

	if a.db == nil {
		status["database"] = "disabled"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.db.PingContext(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
