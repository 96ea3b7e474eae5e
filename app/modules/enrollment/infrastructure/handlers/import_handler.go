package enrollmenthandlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
	"github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/rowsource"
)

// maxUploadBytes caps the submitted workbook size.
const maxUploadBytes = 16 << 20

// Importer is the slice of the import service the handler needs.
type Importer interface {
	Import(ctx context.Context, rows []domain.RawRow) (domain.ImportSummary, error)
}

// ImportHandler is the HTTP surface of the enrollment import pipeline.
type ImportHandler struct {
	service Importer
	logger  *slog.Logger
}

// NewImportHandler creates the handler.
func NewImportHandler(service Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the enrollment routes on the router.
func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/enrollment/import", h.handleImport)
}

func (h *ImportHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, _, err := r.FormFile("archivo")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing file field 'archivo'")
		return
	}
	defer file.Close()

	rows, err := rowsource.ReadXLSX(file)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected import upload", slog.Any("error", err))
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	summary, err := h.service.Import(ctx, rows)
	if err != nil {
		// Infrastructure failure: the partial summary still goes back so
		// the batch can be corrected and resubmitted.
		h.logger.ErrorContext(ctx, "import run aborted", slog.Any("error", err))
		h.respondJSON(w, http.StatusInternalServerError, summary)
		return
	}

	status := http.StatusOK
	if !summary.OK {
		status = http.StatusUnprocessableEntity
	}
	h.respondJSON(w, status, summary)
}

func (h *ImportHandler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *ImportHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
