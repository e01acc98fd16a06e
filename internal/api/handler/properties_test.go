package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/pkg/models"
)

func TestListProperties(t *testing.T) {
	rec := httptest.NewRecorder()
	NewListPropertiesHandler(listing.NewMockSource())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []models.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data)
	for _, l := range body.Data {
		assert.NotEmpty(t, l.CaseNumber)
		assert.Positive(t, l.AppraisalValue)
	}
}

func TestUploadProperty(t *testing.T) {
	dir := t.TempDir()
	src := listing.NewFileSource(dir)

	payload := `{
		"case_number": "2025타경11111",
		"court": "서울중앙지방법원",
		"address": "서울특별시 중구 세종대로 1",
		"appraisal_value": 500000000,
		"minimum_bid": 400000000,
		"auction_date": "2025-10-01"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	NewUploadPropertyHandler(src)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	saved, err := src.GetListing(req.Context(), "2025타경11111")
	require.NoError(t, err)
	assert.Equal(t, int64(500_000_000), saved.AppraisalValue)
}

func TestUploadPropertyValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing case number", `{"court":"법원","address":"주소","appraisal_value":1,"minimum_bid":1,"auction_date":"2025-10-01"}`},
		{"zero appraisal", `{"case_number":"2025타경1","court":"법원","address":"주소","appraisal_value":0,"minimum_bid":1,"auction_date":"2025-10-01"}`},
		{"bad date", `{"case_number":"2025타경1","court":"법원","address":"주소","appraisal_value":1,"minimum_bid":1,"auction_date":"soon"}`},
		{"bad risk level", `{"case_number":"2025타경1","court":"법원","address":"주소","appraisal_value":1,"minimum_bid":1,"auction_date":"2025-10-01","risk_level":"spicy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader(tt.payload))
			rec := httptest.NewRecorder()
			NewUploadPropertyHandler(listing.NewFileSource(t.TempDir()))(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "INVALID_LISTING")
		})
	}
}

func TestUploadPropertyUnsupported(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/properties", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	NewUploadPropertyHandler(nil)(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestTemplateHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTemplateHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/template", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Listing  models.Listing `json:"listing"`
			Sections []string       `json:"sections"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.SectionOrder, body.Data.Sections)
	assert.Empty(t, body.Data.Listing.CaseNumber)
}
