// Package speech turns narration text into audio files.
package speech

import (
	"context"
	"errors"
	"time"

	"github.com/greg-kim/auctionreel/internal/config"
)

// Sentinel errors for speech synthesis failures.
var (
	ErrProviderUnavailable = errors.New("speech provider unavailable")
	ErrSynthesisFailed     = errors.New("speech synthesis failed")
	ErrSynthesisTimeout    = errors.New("speech synthesis timeout")
	ErrEmptyText           = errors.New("empty narration text")
)

// Synthesizer is the text-to-speech backend interface.
type Synthesizer interface {
	// Synthesize writes audio for text to a new file. basePath is a path
	// without extension; the backend appends its own (".wav" or ".mp3")
	// and returns the final path with the measured audio duration.
	Synthesize(ctx context.Context, text, basePath string) (string, time.Duration, error)
	// Name returns the backend identifier ("mock" or "naver").
	Name() string
}

// NewSynthesizer selects the backend once at job configuration time. The
// mock backend is used in mock mode and whenever the Naver credentials
// are not configured.
func NewSynthesizer(cfg config.SpeechConfig, ffprobePath string, mockMode bool) Synthesizer {
	if mockMode || cfg.NaverClientID == "" || cfg.NaverClientSecret == "" {
		return NewMockSynthesizer()
	}
	return NewNaverSynthesizer(cfg, ffprobePath)
}
