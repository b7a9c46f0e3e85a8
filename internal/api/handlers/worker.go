package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/store"
)

// WorkerHandler is the surface for the external collaborators: the
// embedding worker consuming the queue and the backup collaborator
// consuming the outbox.
type WorkerHandler struct {
	queue  domain.QueueStore
	outbox domain.OutboxStore
}

func NewWorkerHandler(qs domain.QueueStore, os domain.OutboxStore) *WorkerHandler {
	return &WorkerHandler{queue: qs, outbox: os}
}

func (h *WorkerHandler) PendingJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListPending(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

type jobStatusRequest struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (h *WorkerHandler) SetJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req jobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidQueueStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	err = h.queue.SetStatus(r.Context(), id, domain.QueueStatus(req.Status), req.ErrorMessage)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *WorkerHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *WorkerHandler) PendingSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.outbox.ListPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signals": signals, "count": len(signals)})
}

func (h *WorkerHandler) AcknowledgeSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signal id")
		return
	}
	if err := h.outbox.Acknowledge(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
