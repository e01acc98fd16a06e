package speech

import (
	"context"
	"strings"
	"time"
	"unicode"
)

const (
	syllablesPerMinute = 350
	minClipSeconds     = 5
	maxClipSeconds     = 600
)

// MockSynthesizer writes silent WAV clips whose length is estimated from
// the text: non-whitespace runes at a fixed Korean speaking rate, clamped
// to a sane clip range. Deterministic for a given text.
type MockSynthesizer struct{}

func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

func (s *MockSynthesizer) Name() string { return "mock" }

func (s *MockSynthesizer) Synthesize(ctx context.Context, text, basePath string) (string, time.Duration, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	d := EstimateDuration(text)
	path := basePath + ".wav"
	if err := writeSilentWAV(path, d); err != nil {
		return "", 0, err
	}
	return path, d, nil
}

// EstimateDuration predicts how long a narration takes to speak.
func EstimateDuration(text string) time.Duration {
	syllables := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			syllables++
		}
	}
	secs := float64(syllables) / syllablesPerMinute * 60
	if secs < minClipSeconds {
		secs = minClipSeconds
	}
	if secs > maxClipSeconds {
		secs = maxClipSeconds
	}
	return time.Duration(secs * float64(time.Second))
}
