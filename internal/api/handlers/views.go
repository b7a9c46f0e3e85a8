package handlers

import (
	"net/http"

	"github.com/mnemoslab/mnemos/internal/service"
)

// ViewsHandler serves the read-only derived views.
type ViewsHandler struct {
	svc *service.RetrievalService
}

func NewViewsHandler(svc *service.RetrievalService) *ViewsHandler {
	return &ViewsHandler{svc: svc}
}

func (h *ViewsHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.svc.TierPartition(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (h *ViewsHandler) FactRanking(w http.ResponseWriter, r *http.Request) {
	facts, err := h.svc.FactRanking(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

func (h *ViewsHandler) Highlights(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.EmotionalHighlights(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *ViewsHandler) Priority(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.PriorityRanking(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *ViewsHandler) ForgettingRisk(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ForgettingRisk(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *ViewsHandler) RetentionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.RetentionStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
