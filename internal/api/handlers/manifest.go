package handlers

import (
	"io"
	"net/http"

	"github.com/mnemoslab/mnemos/internal/service"
)

// manifestBodyLimit caps an uploaded manifest at 1 MiB. Reviewed
// manifests are small; anything bigger is a mistake.
const manifestBodyLimit = 1 << 20

// ManifestHandler accepts reviewed YAML manifests for bulk ingestion.
type ManifestHandler struct {
	svc *service.ManifestService
}

func NewManifestHandler(svc *service.ManifestService) *ManifestHandler {
	return &ManifestHandler{svc: svc}
}

func (h *ManifestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, manifestBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	manifest, err := service.ParseManifest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Apply(r.Context(), manifest, queryBool(r, "dry_run"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
