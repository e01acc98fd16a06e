package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/greg-kim/auctionreel/internal/api/response"
	"github.com/greg-kim/auctionreel/internal/document"
	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/internal/pipeline"
	"github.com/greg-kim/auctionreel/pkg/models"
)

var validate = validator.New()

// JobService defines the pipeline operations the handlers depend on.
type JobService interface {
	CreateJob(ctx context.Context, caseNumber, sourceMode, outputFilename string, mockMode bool) (*models.Job, error)
	CreateDocumentJob(ctx context.Context, documentPath, outputFilename string, mockMode bool) (*models.Job, error)
	GetJob(id string) (*models.Job, error)
	ListJobs() []*models.Job
	DeleteJob(ctx context.Context, id string) error
}

// CreateJobRequest is the body of POST /api/v1/jobs.
type CreateJobRequest struct {
	CaseNumber     string `json:"case_number" validate:"required,max=64"`
	SourceMode     string `json:"source_mode" validate:"omitempty,oneof=mock file postgres"`
	MockMode       bool   `json:"mock_mode"`
	OutputFilename string `json:"output_filename" validate:"omitempty,max=128"`
}

// NewCreateJobHandler returns the handler for POST /api/v1/jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request parameters", validationDetails(err))
			return
		}
		if req.OutputFilename != "" && !safeFilename(req.OutputFilename) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "output_filename must be a plain .mp4 file name", nil)
			return
		}

		job, err := svc.CreateJob(r.Context(), req.CaseNumber, req.SourceMode, req.OutputFilename, req.MockMode)
		if err != nil {
			writeCreateError(w, err)
			return
		}
		response.Created(w, job)
	}
}

// NewCreateDocumentJobHandler returns the handler for POST /api/v1/jobs/document.
// The request is a multipart form with the PDF in the "file" field.
func NewCreateDocumentJobHandler(svc JobService, uploadDir string, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing file upload", nil)
			return
		}
		defer file.Close()

		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store upload", nil)
			return
		}
		docPath := filepath.Join(uploadDir, "upload-"+uuid.New().String()+".pdf")
		if err := saveUpload(file, docPath); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store upload", nil)
			return
		}

		outputFilename := r.FormValue("output_filename")
		if outputFilename != "" && !safeFilename(outputFilename) {
			os.Remove(docPath)
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "output_filename must be a plain .mp4 file name", nil)
			return
		}
		mockMode := r.FormValue("mock_mode") == "true"

		job, err := svc.CreateDocumentJob(r.Context(), docPath, outputFilename, mockMode)
		if err != nil {
			writeDocumentError(w, err, header.Filename)
			return
		}
		response.Created(w, job)
	}
}

// NewGetJobHandler returns the handler for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.GetJob(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No job with that ID", nil)
			return
		}
		response.JSON(w, job)
	}
}

// NewListJobsHandler returns the handler for GET /api/v1/jobs.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, svc.ListJobs())
	}
}

// NewDeleteJobHandler returns the handler for DELETE /api/v1/jobs/{jobID}.
func NewDeleteJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if err := svc.DeleteJob(r.Context(), jobID); err != nil {
			if errors.Is(err, jobstore.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No job with that ID", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete job", nil)
			return
		}
		response.JSON(w, map[string]string{"job_id": jobID, "deleted": "true"})
	}
}

func writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		response.Error(w, http.StatusNotFound, "LISTING_NOT_FOUND", "No listing for that case number", nil)
	case errors.Is(err, pipeline.ErrQueueFull):
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL", "Too many jobs in progress, try again later", nil)
	case strings.Contains(err.Error(), "unknown listing source"):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create job", nil)
	}
}

func writeDocumentError(w http.ResponseWriter, err error, filename string) {
	switch {
	case errors.Is(err, document.ErrNotPDF):
		response.Error(w, http.StatusBadRequest, "INVALID_DOCUMENT", "Upload is not a readable PDF", map[string]string{"filename": filename})
	case errors.Is(err, document.ErrEmptyDocument):
		response.Error(w, http.StatusBadRequest, "INVALID_DOCUMENT", "Document has no pages", map[string]string{"filename": filename})
	case errors.Is(err, document.ErrTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "Document exceeds the upload size limit", nil)
	case errors.Is(err, pipeline.ErrQueueFull):
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL", "Too many jobs in progress, try again later", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create job", nil)
	}
}

func saveUpload(src io.Reader, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}

// safeFilename accepts plain .mp4 names with no path components.
func safeFilename(name string) bool {
	if !strings.HasSuffix(name, ".mp4") {
		return false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

// validationDetails flattens validator errors into field -> constraint.
func validationDetails(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
