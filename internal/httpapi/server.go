/**
 * HTTP ingress/admin surface.
 *
 * Framing itself (routing library, middleware stack) is out of scope
 * per spec §1, but the routes and response schemas named in §6 are
 * contractual, so a minimal net/http + ServeMux adapter is provided
 * here. Upload metadata is checked with go-playground/validator
 * struct tags before the deeper content Validator ever sees the file
 * bytes, the pattern used throughout the retrieval pack's upload
 * handlers.
 */

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/adverant/ocrservice/internal/errors"
	"github.com/adverant/ocrservice/internal/logging"
	"github.com/adverant/ocrservice/internal/model"
	ocrvalidator "github.com/adverant/ocrservice/internal/validator"
)

// Store is the subset of store.Store the HTTP surface needs.
type Store interface {
	CreateJob(ctx context.Context, j *model.Job) (string, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, status model.Status, limit, offset int) ([]*model.Job, error)
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
	DeleteJob(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// uploadMetadata is the multipart form's non-file fields.
type uploadMetadata struct {
	DocumentType    string `validate:"required,max=64"`
	Email           string `validate:"omitempty,email"`
	CallbackWebhook string `validate:"omitempty,url"`
}

// Server wires the HTTP routes onto a Store.
type Server struct {
	store    Store
	validate *validator.Validate
	log      *logging.Logger
	maxBody  int64
}

// New builds a Server. maxUploadBytes bounds the request body read for
// /api/upload before the deeper content Validator ever runs.
func New(store Store, maxUploadBytes int64) *Server {
	return &Server{
		store:    store,
		validate: validator.New(),
		log:      logging.NewLogger("httpapi"),
		maxBody:  maxUploadBytes,
	}
}

// Routes returns the configured ServeMux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/openapi", s.handleOpenAPI)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/status/", s.handleStatus)
	mux.HandleFunc("/api/admin/stats", s.handleAdminStats)
	mux.HandleFunc("/api/admin/jobs", s.handleAdminJobsList)
	mux.HandleFunc("/api/admin/jobs/", s.handleAdminJobDetail)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, apperrors.NewStoreUnavailableError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"openapi": "3.0.0",
		"info":    map[string]string{"title": "OCR Service", "version": "1.0.0"},
		"paths": []string{
			"/api/upload", "/api/status/{id}", "/api/admin/stats",
			"/api/admin/jobs", "/api/admin/jobs/{id}",
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody+1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, apperrors.NewValidationError("failed to parse multipart form: "+err.Error(), nil))
		return
	}

	meta := uploadMetadata{
		DocumentType:    r.FormValue("documentType"),
		Email:           r.FormValue("email"),
		CallbackWebhook: r.FormValue("callbackWebhook"),
	}
	if err := s.validate.Struct(meta); err != nil {
		writeError(w, apperrors.NewValidationError("invalid upload metadata: "+err.Error(), nil))
		return
	}

	if meta.CallbackWebhook != "" {
		if err := ocrvalidator.ValidateWebhookURL(meta.CallbackWebhook); err != nil {
			writeError(w, err)
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.NewValidationError("file field is required", nil))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.NewValidationError("failed to read uploaded file", nil))
		return
	}

	claimedMime := header.Header.Get("Content-Type")
	v := ocrvalidator.New()
	result, err := v.Validate("", data, claimedMime)
	if err != nil {
		writeError(w, err)
		return
	}

	job := &model.Job{
		DocumentType:    meta.DocumentType,
		Email:           meta.Email,
		CallbackWebhook: meta.CallbackWebhook,
		FileData:        data,
		FileName:        header.Filename,
		MimeType:        result.DetectedMimeType,
	}

	id, err := s.store.CreateJob(r.Context(), job)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id, "status": string(model.StatusPending)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobToStatusResponse(job))
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleAdminJobsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var status model.Status
	if s := q.Get("status"); s != "" {
		status = model.Status(s)
	}
	limit := 50
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o > 0 {
		offset = o
	}

	jobs, err := s.store.ListJobs(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(jobs))
	for i, j := range jobs {
		resp[i] = jobToStatusResponse(j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminJobDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/jobs/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	if strings.HasSuffix(rest, "/file") {
		s.handleAdminJobFile(w, r, strings.TrimSuffix(rest, "/file"))
		return
	}
	id := rest

	switch r.Method {
	case http.MethodGet:
		job, err := s.store.GetJob(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, jobToStatusResponse(job))
	case http.MethodDelete:
		if err := s.store.DeleteJob(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPatch:
		// PATCH decodes a {"status": ...} body and echoes the id and
		// the requested status back. It does not change the stored job:
		// no status override and no reset to PENDING happens here.
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.NewValidationError("invalid patch body", nil))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": body.Status})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdminJobFile streams the original uploaded bytes back out,
// served directly from the job's stored blob column — the supplemental
// artifact-download feature described in SPEC_FULL.md §12.
func (s *Server) handleAdminJobFile(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", job.MimeType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+job.FileName+"\"")
	w.Write(job.FileData)
}

func jobToStatusResponse(j *model.Job) map[string]interface{} {
	resp := map[string]interface{}{
		"id":           j.ID,
		"status":       j.Status,
		"documentType": j.DocumentType,
		"fileName":     j.FileName,
		"mimeType":     j.MimeType,
		"createdAt":    j.CreatedAt,
		"updatedAt":    j.UpdatedAt,
	}
	if j.OCRResult != nil {
		resp["ocrResult"] = j.OCRResult
	}
	if j.ErrorMessage != "" {
		resp["errorMessage"] = j.ErrorMessage
	}
	if j.ProcessedAt != nil {
		resp["processedAt"] = j.ProcessedAt
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if pe, ok := err.(*apperrors.ProcessingError); ok {
		writeJSON(w, pe.HTTPStatus(), pe.ToMap())
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
