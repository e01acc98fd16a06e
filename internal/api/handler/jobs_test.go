package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/internal/pipeline"
	"github.com/greg-kim/auctionreel/pkg/models"
)

type stubJobService struct {
	createErr error
	deleteErr error
	jobs      map[string]*models.Job
}

func newStubJobService() *stubJobService {
	return &stubJobService{jobs: map[string]*models.Job{}}
}

func (s *stubJobService) CreateJob(_ context.Context, caseNumber, _, _ string, _ bool) (*models.Job, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	job := &models.Job{
		ID:        "abc12345",
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Params:    models.JobParams{Mode: models.JobModeStandard, CaseNumber: caseNumber},
	}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubJobService) CreateDocumentJob(_ context.Context, _, _ string, _ bool) (*models.Job, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	job := &models.Job{ID: "doc12345", Status: models.JobStatusPending}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubJobService) GetJob(id string) (*models.Job, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	return job, nil
}

func (s *stubJobService) ListJobs() []*models.Job {
	out := make([]*models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

func (s *stubJobService) DeleteJob(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.jobs[id]; !ok {
		return jobstore.ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func doCreate(t *testing.T, svc *stubJobService, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewCreateJobHandler(svc)(rec, req)
	return rec
}

func TestCreateJob(t *testing.T) {
	rec := doCreate(t, newStubJobService(), `{"case_number":"2024타경12345","mock_mode":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data models.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc12345", body.Data.ID)
	assert.Equal(t, models.JobStatusPending, body.Data.Status)
}

func TestCreateJobInvalidBody(t *testing.T) {
	rec := doCreate(t, newStubJobService(), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobMissingCaseNumber(t *testing.T) {
	rec := doCreate(t, newStubJobService(), `{"mock_mode":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}

func TestCreateJobBadSource(t *testing.T) {
	rec := doCreate(t, newStubJobService(), `{"case_number":"2024타경12345","source_mode":"ftp"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobBadOutputFilename(t *testing.T) {
	for _, name := range []string{"../../etc/passwd.mp4", "a/b.mp4", "video.avi"} {
		rec := doCreate(t, newStubJobService(), `{"case_number":"2024타경12345","output_filename":"`+name+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestCreateJobListingNotFound(t *testing.T) {
	svc := newStubJobService()
	svc.createErr = listing.ErrNotFound
	rec := doCreate(t, svc, `{"case_number":"9999타경99999"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "LISTING_NOT_FOUND")
}

func TestCreateJobQueueFull(t *testing.T) {
	svc := newStubJobService()
	svc.createErr = pipeline.ErrQueueFull
	rec := doCreate(t, svc, `{"case_number":"2024타경12345"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "QUEUE_FULL")
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetJob(t *testing.T) {
	svc := newStubJobService()
	_, err := svc.CreateJob(context.Background(), "2024타경12345", "", "", true)
	require.NoError(t, err)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/abc12345", nil), "jobID", "abc12345")
	rec := httptest.NewRecorder()
	NewGetJobHandler(svc)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job_id":"abc12345"`)
}

func TestGetJobNotFound(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil), "jobID", "nope")
	rec := httptest.NewRecorder()
	NewGetJobHandler(newStubJobService())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB_NOT_FOUND")
}

func TestDeleteJob(t *testing.T) {
	svc := newStubJobService()
	_, err := svc.CreateJob(context.Background(), "2024타경12345", "", "", true)
	require.NoError(t, err)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/abc12345", nil), "jobID", "abc12345")
	rec := httptest.NewRecorder()
	NewDeleteJobHandler(svc)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.jobs)
}

func TestDeleteJobNotFound(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/jobs/nope", nil), "jobID", "nope")
	rec := httptest.NewRecorder()
	NewDeleteJobHandler(newStubJobService())(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	svc := newStubJobService()
	_, err := svc.CreateJob(context.Background(), "2024타경12345", "", "", true)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	NewListJobsHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []models.Job `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
}

func TestCreateDocumentJobMissingFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/document", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	NewCreateDocumentJobHandler(newStubJobService(), t.TempDir(), 1<<20)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafeFilename(t *testing.T) {
	assert.True(t, safeFilename("video.mp4"))
	assert.True(t, safeFilename("auction-2024타경12345.mp4"))
	assert.False(t, safeFilename("video.avi"))
	assert.False(t, safeFilename("../video.mp4"))
	assert.False(t, safeFilename("a/b.mp4"))
	assert.False(t, safeFilename("..mp4"))
}
