package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/service"
)

// ReviewHandler serves the spaced-repetition endpoints and the
// forgetting sweep trigger.
type ReviewHandler struct {
	svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type registerReviewRequest struct {
	SourceTable string `json:"source_table"`
	SourceID    int64  `json:"source_id"`
	Quality     int    `json:"quality"`
}

func (h *ReviewHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.RegisterReview(r.Context(), service.ItemRef{
		Source: domain.EmbedSource(req.SourceTable),
		ID:     req.SourceID,
	}, req.Quality)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ReviewHandler) Due(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Due(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"due": items, "count": len(items)})
}

func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), service.ItemRef{
		Source: domain.EmbedSource(r.URL.Query().Get("source_table")),
		ID:     int64(queryInt(r, "source_id", 0)),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": entries, "count": len(entries)})
}

// Sweep runs the forgetting pass. With dry_run, candidates are
// reported without being flagged.
func (h *ReviewHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Sweep(r.Context(), queryBool(r, "dry_run"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
