package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greg-kim/auctionreel/internal/api/response"
)

// NewVideoHandler returns the handler for GET /api/v1/videos/{filename}. It
// streams rendered videos from outputDir and refuses anything that is not a
// plain file name inside it.
func NewVideoHandler(outputDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" || filename != filepath.Base(filename) ||
			strings.Contains(filename, "..") || !strings.HasSuffix(filename, ".mp4") {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid video file name", nil)
			return
		}

		path := filepath.Join(outputDir, filename)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			response.Error(w, http.StatusNotFound, "VIDEO_NOT_FOUND", "No video with that name", nil)
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, path)
	}
}
