package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"github.com/lehigh-university-libraries/metgallery/internal/proxy"
)

const maxInsightBody = 64 << 10

// HandleInsight proxies a prompt to the generative backend: POST {prompt, objectID?} -> {text}
func (h *Handler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, "Method not allowed. Use POST.", http.StatusMethodNotAllowed)
		return
	}

	var req models.InsightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInsightBody)).Decode(&req); err != nil {
		slog.Debug("Rejecting insight request", "err", err, "request_id", chiMiddleware.GetReqID(r.Context()))
		h.writeError(w, "Invalid request: prompt is required", http.StatusBadRequest)
		return
	}

	resp, err := h.insights.Generate(r.Context(), req)
	if err != nil {
		var proxyErr *proxy.Error
		if errors.As(err, &proxyErr) {
			h.writeError(w, proxyErr.Message, proxyErr.StatusCode())
			return
		}
		slog.Error("Unexpected insight failure", "err", err, "request_id", chiMiddleware.GetReqID(r.Context()))
		h.writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
