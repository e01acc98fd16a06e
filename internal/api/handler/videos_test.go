package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveVideo(t *testing.T, dir, filename string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+filename, nil)
	req = withURLParam(req, "filename", filename)
	rec := httptest.NewRecorder()
	NewVideoHandler(dir)(rec, req)
	return rec
}

func TestVideoHandlerServesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.mp4"), []byte("video-bytes"), 0o644))

	rec := serveVideo(t, dir, "out.mp4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "video-bytes", rec.Body.String())
}

func TestVideoHandlerNotFound(t *testing.T) {
	rec := serveVideo(t, t.TempDir(), "missing.mp4")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "VIDEO_NOT_FOUND")
}

func TestVideoHandlerRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"..%2Fsecret.mp4", "notes.txt", "..mp4"} {
		rec := serveVideo(t, dir, name)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}
