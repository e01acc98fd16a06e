package handler

import (
	"context"
	"net/http"
	"os/exec"
	"time"

	"github.com/greg-kim/auctionreel/internal/api/response"
	"github.com/greg-kim/auctionreel/internal/cache"
)

// NewHealthHandler returns the handler for GET /api/v1/health. It reports
// cache reachability and whether the ffmpeg binary resolves; the service
// itself is healthy as long as it can respond.
func NewHealthHandler(c cache.Cache, ffmpegPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		cacheStatus := "ok"
		if err := c.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
		}

		ffmpegStatus := "ok"
		if _, err := exec.LookPath(ffmpegPath); err != nil {
			ffmpegStatus = "missing"
		}

		response.JSON(w, map[string]string{
			"status": "ok",
			"cache":  cacheStatus,
			"ffmpeg": ffmpegStatus,
		})
	}
}
