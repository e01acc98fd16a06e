package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/greg-kim/auctionreel/internal/api/middleware"
	"github.com/greg-kim/auctionreel/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler         http.HandlerFunc
	CreateJobHandler      http.HandlerFunc
	CreateDocumentHandler http.HandlerFunc
	GetJobHandler         http.HandlerFunc
	ListJobsHandler       http.HandlerFunc
	DeleteJobHandler      http.HandlerFunc
	VideoHandler          http.HandlerFunc
	ListProperties        http.HandlerFunc
	UploadProperty        http.HandlerFunc
	TemplateHandler       http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Post("/api/v1/jobs/document", orNotImplemented(deps.CreateDocumentHandler))
		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Delete("/api/v1/jobs/{jobID}", orNotImplemented(deps.DeleteJobHandler))

		r.Get("/api/v1/videos/{filename}", orNotImplemented(deps.VideoHandler))

		r.Get("/api/v1/properties", orNotImplemented(deps.ListProperties))
		r.Post("/api/v1/properties", orNotImplemented(deps.UploadProperty))
		r.Get("/api/v1/template", orNotImplemented(deps.TemplateHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
