package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/greg-kim/auctionreel/internal/api/response"
	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/pkg/models"
)

const defaultSearchLimit = 20

// ListingBrowser is the read side of the listing catalog used by the
// properties endpoints.
type ListingBrowser interface {
	SearchListings(ctx context.Context, limit int) ([]*models.Listing, error)
}

// ListingSaver persists uploaded listing records; only the file source
// supports it.
type ListingSaver interface {
	SaveListing(l *models.Listing) (string, error)
}

// NewListPropertiesHandler returns the handler for GET /api/v1/properties.
func NewListPropertiesHandler(browser ListingBrowser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := browser.SearchListings(r.Context(), defaultSearchLimit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list properties", nil)
			return
		}
		if listings == nil {
			listings = []*models.Listing{}
		}
		response.JSON(w, listings)
	}
}

// NewUploadPropertyHandler returns the handler for POST /api/v1/properties:
// a validated listing record saved into the file source for later jobs.
func NewUploadPropertyHandler(saver ListingSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if saver == nil {
			response.Error(w, http.StatusNotImplemented, "NOT_SUPPORTED", "Listing upload requires the file source", nil)
			return
		}

		var l models.Listing
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if err := validate.Struct(&l); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_LISTING", "Listing failed validation", validationDetails(err))
			return
		}

		if _, err := saver.SaveListing(&l); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save listing", nil)
			return
		}
		response.Created(w, map[string]string{"case_number": l.CaseNumber})
	}
}

// NewTemplateHandler returns the handler for GET /api/v1/template: a blank
// listing record plus the narration section order, for clients composing
// uploads.
func NewTemplateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"listing":  &models.Listing{AssetType: models.AssetTypeApartment, RiskLevel: models.RiskSafe},
			"sections": models.SectionOrder,
		})
	}
}

var _ ListingBrowser = listing.Source(nil)
