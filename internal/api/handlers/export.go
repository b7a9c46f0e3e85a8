package handlers

import (
	"net/http"
	"time"

	"github.com/mnemoslab/mnemos/internal/service"
)

// ExportHandler serves the bulk export document for the external
// archival collaborator.
type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	window := service.ExportWindow{
		MinImportance: queryFloat(r, "min_importance", 0),
		MinSalience:   queryFloat(r, "min_salience", 0),
	}

	var err error
	window.From, err = parseWindowTime(r, "from", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from timestamp")
		return
	}
	window.To, err = parseWindowTime(r, "to", time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to timestamp")
		return
	}

	doc, err := h.svc.Export(r.Context(), window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func parseWindowTime(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, raw)
}
