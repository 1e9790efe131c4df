package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Harshitk-cp/outreach/internal/api/handlers"
	mw "github.com/Harshitk-cp/outreach/internal/api/middleware"
	"github.com/Harshitk-cp/outreach/internal/buildconfig"
	"github.com/Harshitk-cp/outreach/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AgentService covers both the authenticated and the public agent routes.
type AgentService interface {
	handlers.AgentService
	handlers.PublicAgentService
}

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router wires into handlers.
type Deps struct {
	DB            Pinger
	Users         domain.UserStore
	Agents        AgentService
	Prospects     handlers.ProspectService
	Conversations handlers.ConversationService
	Campaigns     handlers.CampaignService

	// CallbackSecret is the shared secret the AI backend presents on callbacks.
	CallbackSecret string
	RateLimitRPS   float64
	RateLimitBurst int

	// Registry receives the HTTP collectors and backs /metrics.
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	agentHandler := handlers.NewAgentHandler(d.Agents, d.Prospects, d.CallbackSecret, logger)
	publicHandler := handlers.NewPublicHandler(d.Agents, logger)
	qaiHandler := handlers.NewQAiHandler(d.Conversations, logger)
	campaignHandler := handlers.NewCampaignHandler(d.Campaigns, logger)
	userHandler := handlers.NewUserHandler(d.Users, logger)

	metrics := mw.NewMetricsCollector(reg)

	r := chi.NewRouter()

	// Order matters: request id first, recovery innermost.
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(d.RateLimitRPS, d.RateLimitBurst))

	r.Get("/health", healthHandler(d.DB))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/api", func(r chi.Router) {
		// No API key: bootstrap, AI backend callback, shared agents, tracking pixel.
		r.Post("/users", userHandler.Create)
		r.Post("/agent/execution_update_async", agentHandler.ExecutionUpdateAsync)
		r.Get("/agent/public/get", publicHandler.GetAgent)
		r.Get("/agent/public/status_updates", publicHandler.StatusUpdates)
		r.Get("/campaign/email_open", campaignHandler.EmailOpen)

		r.Group(func(r chi.Router) {
			r.Use(mw.APIKeyAuth(d.Users))

			r.Route("/agent", func(r chi.Router) {
				r.Post("/create", agentHandler.Create)
				r.Get("/get", agentHandler.Get)
				r.Post("/update", agentHandler.Update)
				r.Post("/delete", agentHandler.Delete)
				r.Get("/list", agentHandler.List)
				r.Post("/archive", agentHandler.Archive)
				r.Post("/pause", agentHandler.Pause)
				r.Post("/resume", agentHandler.Resume)
				r.Post("/share", agentHandler.Share)
				r.Post("/execute", agentHandler.Execute)
				r.Get("/status_updates", agentHandler.StatusUpdates)
				r.Get("/daily_prospect_updates", agentHandler.DailyProspectUpdates)
				r.Get("/pending_artifacts", agentHandler.PendingArtifacts)
				r.Post("/artifact/review", agentHandler.ReviewArtifact)
			})

			r.Route("/qai", func(r chi.Router) {
				r.Post("/conversation/create", qaiHandler.CreateConversation)
				r.Post("/conversation/delete", qaiHandler.DeleteConversation)
				r.Get("/conversations", qaiHandler.Conversations)
				r.Get("/conversation", qaiHandler.Conversation)
				r.Post("/converse", qaiHandler.Converse)
				r.Get("/review_updates", qaiHandler.ReviewUpdates)
			})

			r.Route("/campaign", func(r chi.Router) {
				r.Get("/sequence/list", campaignHandler.Sequences)
				r.Get("/sequence", campaignHandler.Sequence)
				r.Get("/sequence/analytics/open", campaignHandler.SequenceAnalytics(domain.EmailEventOpen))
				r.Get("/sequence/analytics/reply", campaignHandler.SequenceAnalytics(domain.EmailEventReply))
				r.Get("/sequence/step/analytics/open", campaignHandler.StepAnalytics(domain.EmailEventOpen))
				r.Get("/sequence/step/analytics/reply", campaignHandler.StepAnalytics(domain.EmailEventReply))
			})
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok", "build": buildconfig.VersionInfo()}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				resp["status"] = "error"
				resp["error"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
