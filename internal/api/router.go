// Package api exposes the pipeline as an HTTP service: a long-lived
// research session over the in-memory store, where update rounds,
// verification, and reporting compose across requests.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	mw "veritrack/internal/api/middleware"
	"veritrack/internal/pipeline"
)

// App holds the router and the pipeline backing it.
type App struct {
	Router    *chi.Mux
	pipeline  *pipeline.Pipeline
	startTime time.Time
}

// NewApp wires the HTTP surface around a pipeline.
func NewApp(p *pipeline.Pipeline, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{
		Router:    chi.NewRouter(),
		pipeline:  p,
		startTime: time.Now(),
	}

	r := app.Router

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logging(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", app.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sources", func(r chi.Router) {
			r.Post("/", app.createSource)
			r.Get("/", app.listSources)
		})
		r.Get("/claims", app.listClaims)
		r.Post("/claims/{id}/verify", app.verifyClaim)
		r.Post("/verify-all", app.verifyAll)
		r.Get("/report", app.getReport)
	})

	return app
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	sources, claims := a.pipeline.Store().Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(a.startTime).Seconds()),
		"sources":        sources,
		"claims":         claims,
	})
}
