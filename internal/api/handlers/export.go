package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-chat/internal/api/middleware"
	"github.com/dvloznov/finance-chat/internal/export"
	"github.com/dvloznov/finance-chat/internal/jobs"
	"github.com/dvloznov/finance-chat/internal/store"
)

// ExportHandler serves workbook downloads and queues bucket uploads.
type ExportHandler struct {
	store     store.TransactionStore
	publisher jobs.Publisher // nil when no export bucket is configured
	jobStore  jobs.JobStore
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(s store.TransactionStore, publisher jobs.Publisher, jobStore jobs.JobStore, loc *time.Location, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		store:     s,
		publisher: publisher,
		jobStore:  jobStore,
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// Export handles GET /api/export. With ?upload=true the workbook is built
// and uploaded in the background and the queued job is returned.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if upload, _ := strconv.ParseBool(r.URL.Query().Get("upload")); upload {
		h.enqueueUpload(w, r, userID)
		return
	}

	txs, err := h.store.List(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, txs, h.loc); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build workbook")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to export data to Excel")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ExportHandler) enqueueUpload(w http.ResponseWriter, r *http.Request, userID string) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Export uploads are not configured")
		return
	}

	job := &jobs.ExportJob{UserID: userID, CreatedAt: h.now()}
	if err := h.publisher.PublishExport(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Export job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /api/export/jobs/{id}
func (h *ExportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	job, err := h.jobStore.GetJob(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrJobNotFound) || (err == nil && job.UserID != userID) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/export/jobs
func (h *ExportHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		UserID: middleware.UserIDFromContext(r.Context()),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	list, err := h.jobStore.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	if list == nil {
		list = []*jobs.ExportJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
