package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/greg-kim/auctionreel/internal/config"
)

const naverTTSEndpoint = "https://naveropenapi.apigw.ntruss.com/tts-premium/v1/tts"

// NaverSynthesizer calls the Naver Clova Voice premium TTS API and measures
// the resulting clip with ffprobe.
type NaverSynthesizer struct {
	clientID     string
	clientSecret string
	speaker      string
	ffprobePath  string
	httpClient   *http.Client
}

func NewNaverSynthesizer(cfg config.SpeechConfig, ffprobePath string) *NaverSynthesizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	speaker := cfg.NaverSpeaker
	if speaker == "" {
		speaker = "nara"
	}
	return &NaverSynthesizer{
		clientID:     cfg.NaverClientID,
		clientSecret: cfg.NaverClientSecret,
		speaker:      speaker,
		ffprobePath:  ffprobePath,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (s *NaverSynthesizer) Name() string { return "naver" }

func (s *NaverSynthesizer) Synthesize(ctx context.Context, text, basePath string) (string, time.Duration, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyText
	}

	form := url.Values{}
	form.Set("speaker", s.speaker)
	form.Set("text", text)
	form.Set("format", "mp3")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, naverTTSEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-NCP-APIGW-API-KEY-ID", s.clientID)
	req.Header.Set("X-NCP-APIGW-API-KEY", s.clientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", 0, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
		}
		return "", 0, fmt.Errorf("%w: status %d: %s", ErrSynthesisFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	path := basePath + ".mp3"
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close audio file: %w", err)
	}

	d, err := s.probeDuration(ctx, path)
	if err != nil {
		return "", 0, err
	}
	return path, d, nil
}

// probeDuration reads the container duration with ffprobe.
func (s *NaverSynthesizer) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration: %w", err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSynthesisTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrSynthesisTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
