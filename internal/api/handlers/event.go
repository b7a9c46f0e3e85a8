package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mnemoslab/mnemos/internal/service"
)

// EventHandler serves the timeline endpoints: events and the memory
// seeds that compress them.
type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

type createEventRequest struct {
	OccurredAt   *time.Time `json:"occurred_at,omitempty"`
	EventType    string     `json:"event_type"`
	Category     string     `json:"category,omitempty"`
	Summary      string     `json:"summary"`
	Details      string     `json:"details,omitempty"`
	Significance int        `json:"significance"`
	Importance   *float64   `json:"importance,omitempty"`
	Valence      *float64   `json:"valence,omitempty"`
	Arousal      *float64   `json:"arousal,omitempty"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), service.CreateEventInput{
		OccurredAt:   req.OccurredAt,
		EventType:    req.EventType,
		Category:     req.Category,
		Summary:      req.Summary,
		Details:      req.Details,
		Significance: req.Significance,
		Importance:   req.Importance,
		Valence:      req.Valence,
		Arousal:      req.Arousal,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListRecentEvents(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// Access records a retrieval and returns the strengthened event.
func (h *EventHandler) Access(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	event, err := h.svc.AccessEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type compressRequest struct {
	Summary  string  `json:"summary"`
	EventIDs []int64 `json:"event_ids"`
}

// Compress folds a set of events into one memory seed. The raw events
// stay on the timeline, marked long_term and pointed at the seed.
func (h *EventHandler) Compress(w http.ResponseWriter, r *http.Request) {
	var req compressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	seed, err := h.svc.CompressEvents(r.Context(), req.EventIDs, req.Summary)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seed)
}

func (h *EventHandler) ListSeeds(w http.ResponseWriter, r *http.Request) {
	seeds, err := h.svc.ListSeeds(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seeds": seeds, "count": len(seeds)})
}
