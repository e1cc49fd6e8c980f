package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/agentdesk/internal/api/handler"
	mw "github.com/edvin/agentdesk/internal/api/middleware"
	"github.com/edvin/agentdesk/internal/api/response"
	"github.com/edvin/agentdesk/internal/core"
)

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router         chi.Router
	logger         zerolog.Logger
	agents         *core.AgentService
	db             Pinger
	temporalClient temporalclient.Client
}

// NewServer builds the HTTP API. temporalClient may be nil, in which case
// the durable provisioning routes are not mounted.
func NewServer(logger zerolog.Logger, db Pinger, agents *core.AgentService, temporalClient temporalclient.Client) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		logger:         logger,
		agents:         agents,
		db:             db,
		temporalClient: temporalClient,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		agent := handler.NewAgent(s.agents)
		r.Post("/agents", agent.Create)
		r.Get("/agents/{id}", agent.Get)

		if s.agents.AsyncEnabled() {
			r.Post("/agents/async", agent.CreateAsync)
			r.Get("/provisioning/{workflowID}", agent.Result)
		}
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"db": "ok"}
	var dbErr, temporalErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbErr = s.db.Ping(gctx)
		return nil
	})
	if s.temporalClient != nil {
		checks["temporal"] = "ok"
		g.Go(func() error {
			_, temporalErr = s.temporalClient.CheckHealth(gctx, &temporalclient.CheckHealthRequest{})
			return nil
		})
	}
	g.Wait()

	healthy := true
	if dbErr != nil {
		checks["db"] = dbErr.Error()
		healthy = false
	}
	if temporalErr != nil {
		checks["temporal"] = temporalErr.Error()
		healthy = false
	}

	if !healthy {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": checks})
}
