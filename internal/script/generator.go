// Package script produces per-scene narration text for auction videos.
package script

import (
	"context"
	"errors"

	"github.com/greg-kim/auctionreel/internal/config"
	"github.com/greg-kim/auctionreel/pkg/models"
)

// Sentinel errors for script generation failures.
var (
	ErrProviderUnavailable = errors.New("script provider unavailable")
	ErrGenerationTimeout   = errors.New("script generation timeout")
	ErrInvalidResponse     = errors.New("script provider returned invalid response")
)

// Section is one narration unit, rendered as one scene.
type Section struct {
	Name string
	Text string
}

// Generator is the narration backend interface. Never call a concrete
// backend directly; the pipeline always works through this interface.
type Generator interface {
	// ListingScript composes the ordered narration sections for a listing.
	ListingScript(ctx context.Context, l *models.Listing) ([]Section, error)
	// PageScript narrates one rasterized document page.
	PageScript(ctx context.Context, imagePath string, page, total int) (string, error)
	// Name returns the backend identifier ("template" or "anthropic").
	Name() string
}

// NewGenerator selects the backend once at job configuration time. The
// template backend is used in mock mode and whenever no API key is
// configured; a configured production backend is never silently replaced
// mid-job.
func NewGenerator(cfg config.ScriptConfig, channelName string, mockMode bool) Generator {
	if mockMode || cfg.AnthropicAPIKey == "" {
		return NewTemplateGenerator(channelName)
	}
	return NewAnthropicGenerator(cfg, channelName)
}
