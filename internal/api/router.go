// Package api exposes the assistant features as a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/threadwise/internal/assistant"
	"github.com/edgard/threadwise/internal/database"
	"github.com/edgard/threadwise/internal/logger"
	"github.com/edgard/threadwise/internal/parse"
	"github.com/edgard/threadwise/internal/scope"
)

// UserHeader carries the authenticated user id, set by the fronting auth proxy.
const UserHeader = "X-User-ID"

// Assistant is the feature surface served by the API. *assistant.Service satisfies it.
type Assistant interface {
	SuggestReplies(ctx context.Context, req assistant.SuggestRequest) ([]string, error)
	AutoRespond(ctx context.Context, req assistant.RespondRequest) (*database.Message, error)
	AnalyzeTone(ctx context.Context, draft string) (*parse.Tone, error)
	Summarize(ctx context.Context, req assistant.SummaryRequest) (*assistant.SummaryResult, error)
	GetSummary(ctx context.Context, workspaceID, requesterUserID string, sc scope.Scope) (*database.Summary, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	assistant Assistant
	health    Pinger
	validate  *validator.Validate
	log       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(a Assistant, health Pinger, allowedOrigins []string, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("component", "http_api")

	h := &Handler{
		assistant: a,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
	}

	r := chi.NewRouter()

	// Metrics middleware first to capture all requests
	r.Use(Metrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(log))
	r.Use(chimw.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireUser)
		r.Use(chimw.AllowContentType("application/json"))

		r.Post("/tone", h.AnalyzeTone)

		r.Route("/workspaces/{workspaceID}", func(r chi.Router) {
			r.Post("/suggestions", h.SuggestReplies)
			r.Post("/responses", h.AutoRespond)
			r.Post("/summaries", h.Summarize)
			r.Get("/summaries/{scopeType}/{scopeID}", h.GetSummary)
		})
	})

	return r
}
