package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/service"
)

// BeliefHandler serves the fact, lesson, value and entity endpoints,
// including supersession and genealogy.
type BeliefHandler struct {
	svc          *service.BeliefService
	supersession *service.SupersessionService
}

func NewBeliefHandler(svc *service.BeliefService, ss *service.SupersessionService) *BeliefHandler {
	return &BeliefHandler{svc: svc, supersession: ss}
}

type createFactRequest struct {
	Subject    string   `json:"subject"`
	Predicate  string   `json:"predicate"`
	Object     string   `json:"object"`
	Source     string   `json:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Valence    *float64 `json:"valence,omitempty"`
	Arousal    *float64 `json:"arousal,omitempty"`
}

func (h *BeliefHandler) CreateFact(w http.ResponseWriter, r *http.Request) {
	var req createFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fact, err := h.svc.CreateFact(r.Context(), service.CreateFactInput{
		Subject:    req.Subject,
		Predicate:  req.Predicate,
		Object:     req.Object,
		Source:     req.Source,
		Confidence: req.Confidence,
		Valence:    req.Valence,
		Arousal:    req.Arousal,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fact)
}

func (h *BeliefHandler) GetFact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	fact, err := h.svc.GetFact(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fact)
}

// ListFacts returns current facts, optionally filtered by subject. The
// subject is resolved against the entity registry first.
func (h *BeliefHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
	facts, err := h.svc.ListCurrentFacts(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts, "count": len(facts)})
}

// AccessFact records a retrieval: bumps access count and strengthens.
func (h *BeliefHandler) AccessFact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	fact, err := h.svc.AccessFact(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fact)
}

type retagEmotionRequest struct {
	Valence float64 `json:"valence"`
	Arousal float64 `json:"arousal"`
}

func (h *BeliefHandler) RetagFactEmotion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	var req retagEmotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fact, err := h.svc.RetagFactEmotion(r.Context(), id, req.Valence, req.Arousal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fact)
}

type supersedeRequest struct {
	Content    string   `json:"content"`
	Source     string   `json:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Priority   *int     `json:"priority,omitempty"`
}

func (h *BeliefHandler) SupersedeFact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fact id")
		return
	}
	var req supersedeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fact, err := h.supersession.SupersedeFact(r.Context(), id, req.Content, req.Source, req.Confidence)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fact)
}

type createLessonRequest struct {
	Domain     string   `json:"domain,omitempty"`
	Lesson     string   `json:"lesson"`
	Context    string   `json:"context,omitempty"`
	Source     string   `json:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Valence    *float64 `json:"valence,omitempty"`
	Arousal    *float64 `json:"arousal,omitempty"`
}

func (h *BeliefHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lesson, err := h.svc.CreateLesson(r.Context(), service.CreateLessonInput{
		Domain:     req.Domain,
		Lesson:     req.Lesson,
		Context:    req.Context,
		Source:     req.Source,
		Confidence: req.Confidence,
		Valence:    req.Valence,
		Arousal:    req.Arousal,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

func (h *BeliefHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	lesson, err := h.svc.GetLesson(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *BeliefHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.svc.ListCurrentLessons(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": lessons, "count": len(lessons)})
}

func (h *BeliefHandler) SupersedeLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	var req supersedeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lesson, err := h.supersession.SupersedeLesson(r.Context(), id, req.Content, req.Source, req.Confidence)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lesson)
}

type createValueRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Source      string `json:"source,omitempty"`
}

func (h *BeliefHandler) CreateValue(w http.ResponseWriter, r *http.Request) {
	var req createValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	value, err := h.svc.CreateValue(r.Context(), service.CreateValueInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Source:      req.Source,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, value)
}

func (h *BeliefHandler) GetValue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid value id")
		return
	}
	value, err := h.svc.GetValue(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (h *BeliefHandler) ListValues(w http.ResponseWriter, r *http.Request) {
	values, err := h.svc.ListCurrentValues(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": values, "count": len(values)})
}

func (h *BeliefHandler) SupersedeValue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid value id")
		return
	}
	var req supersedeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value, err := h.supersession.SupersedeValue(r.Context(), id, req.Content, req.Source, req.Priority)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, value)
}

// Genealogy returns a belief's full version chain. The kind comes from
// the mounting route.
func (h *BeliefHandler) Genealogy(kind domain.BeliefKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		chain, err := h.supersession.Genealogy(r.Context(), kind, id)
		if errors.Is(err, service.ErrChainTooDeep) {
			// Corrupt chain: return what was reconstructed before the
			// walk was cut off, flagged so the caller knows it is partial.
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"chain":       chain,
				"generations": len(chain),
				"warning":     err.Error(),
			})
			return
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chain": chain, "generations": len(chain)})
	}
}

type createEntityRequest struct {
	Name        string `json:"name"`
	EntityType  string `json:"entity_type,omitempty"`
	Description string `json:"description,omitempty"`
}

func (h *BeliefHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entity, err := h.svc.CreateEntity(r.Context(), req.Name, req.EntityType, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (h *BeliefHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.svc.ListEntities(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": entities, "count": len(entities)})
}
