package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greg-kim/auctionreel/internal/api"
	"github.com/greg-kim/auctionreel/internal/api/response"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, map[string]string{"ok": "true"})
}

func TestRouterRoutes(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		HealthHandler:         okHandler,
		CreateJobHandler:      okHandler,
		CreateDocumentHandler: okHandler,
		GetJobHandler:         okHandler,
		ListJobsHandler:       okHandler,
		DeleteJobHandler:      okHandler,
		VideoHandler:          okHandler,
		ListProperties:        okHandler,
		UploadProperty:        okHandler,
		TemplateHandler:       okHandler,
	})

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/health"},
		{http.MethodPost, "/api/v1/jobs"},
		{http.MethodPost, "/api/v1/jobs/document"},
		{http.MethodGet, "/api/v1/jobs"},
		{http.MethodGet, "/api/v1/jobs/abc12345"},
		{http.MethodDelete, "/api/v1/jobs/abc12345"},
		{http.MethodGet, "/api/v1/videos/out.mp4"},
		{http.MethodGet, "/api/v1/properties"},
		{http.MethodPost, "/api/v1/properties"},
		{http.MethodGet, "/api/v1/template"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRouterNotImplementedFallback(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_IMPLEMENTED")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := api.NewRouter(api.Dependencies{HealthHandler: okHandler})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRecoversPanics(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		ListJobsHandler: func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
