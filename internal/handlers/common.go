package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
)

// InsightService generates insight text for a proxy request
type InsightService interface {
	Generate(ctx context.Context, req models.InsightRequest) (*models.InsightResponse, error)
}

type Handler struct {
	insights  InsightService
	staticDir string
}

func New(insights InsightService, staticDir string) *Handler {
	if staticDir == "" {
		staticDir = "static"
	}
	return &Handler{
		insights:  insights,
		staticDir: staticDir,
	}
}

// Routes wires every endpoint onto a chi router. Extra middleware (such as
// rate limiting) is applied to the insight endpoint only.
func (h *Handler) Routes(insightMiddleware ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(90 * time.Second))

	r.Group(func(r chi.Router) {
		r.Use(insightMiddleware...)
		r.HandleFunc("/api/gemini", h.HandleInsight)
	})
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Get("/*", h.HandleStatic)

	return r
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{Error: message})
}
