package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the auctionreel server.
type Config struct {
	Server   ServerConfig
	Listing  ListingConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Script   ScriptConfig
	Speech   SpeechConfig
	Video    VideoConfig
	Pipeline PipelineConfig
	Paths    PathsConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type ListingConfig struct {
	Source      string // mock | file | postgres
	DataDir     string // file source: directory of per-case JSON documents
	ChannelName string // narration channel branding
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string // optional; empty disables the status mirror and rate limiting
}

type ScriptConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration
}

type SpeechConfig struct {
	NaverClientID     string
	NaverClientSecret string
	NaverSpeaker      string
	Timeout           time.Duration
}

type VideoConfig struct {
	Width        int
	Height       int
	FPS          int
	AudioBitrate string
	Crossfade    time.Duration
	FFmpegPath   string
	FFprobePath  string
}

type PipelineConfig struct {
	Workers        int
	QueueSize      int
	RenderTimeout  time.Duration
	MaxUploadBytes int64
	PdftoppmPath   string
	PdfinfoPath    string
}

type PathsConfig struct {
	OutputDir string
	TempDir   string
}

var validSources = map[string]bool{
	"mock":     true,
	"file":     true,
	"postgres": true,
}

// Load reads configuration from the environment (and .env, if present) and
// returns a validated Config. Missing Anthropic or Naver credentials are not
// errors: the corresponding stage falls back to its mock provider.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AUCTIONREEL_PORT", 8080),
			Env:  envString("AUCTIONREEL_ENV", "development"),
		},
		Listing: ListingConfig{
			Source:      envString("LISTING_SOURCE", "mock"),
			DataDir:     envString("LISTING_DATA_DIR", "data/input"),
			ChannelName: envString("CHANNEL_NAME", "경매TV"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Script: ScriptConfig{
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:  envString("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			Timeout:         envDurationSecs("SCRIPT_TIMEOUT_SECS", 60*time.Second),
		},
		Speech: SpeechConfig{
			NaverClientID:     os.Getenv("NAVER_CLIENT_ID"),
			NaverClientSecret: os.Getenv("NAVER_CLIENT_SECRET"),
			NaverSpeaker:      envString("NAVER_SPEAKER", "nara"),
			Timeout:           envDurationSecs("TTS_TIMEOUT_SECS", 60*time.Second),
		},
		Video: VideoConfig{
			Width:        envInt("VIDEO_WIDTH", 1920),
			Height:       envInt("VIDEO_HEIGHT", 1080),
			FPS:          envInt("VIDEO_FPS", 30),
			AudioBitrate: envString("AUDIO_BITRATE", "192k"),
			Crossfade:    time.Duration(envInt("CROSSFADE_MS", 1000)) * time.Millisecond,
			FFmpegPath:   envString("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:  envString("FFPROBE_PATH", "ffprobe"),
		},
		Pipeline: PipelineConfig{
			Workers:        envInt("MAX_CONCURRENT_JOBS", 3),
			QueueSize:      envInt("JOB_QUEUE_SIZE", 64),
			RenderTimeout:  envDurationSecs("RENDER_TIMEOUT_SECS", 600*time.Second),
			MaxUploadBytes: int64(envInt("MAX_UPLOAD_MB", 50)) << 20,
			PdftoppmPath:   envString("PDFTOPPM_PATH", "pdftoppm"),
			PdfinfoPath:    envString("PDFINFO_PATH", "pdfinfo"),
		},
		Paths: PathsConfig{
			OutputDir: envString("OUTPUT_DIR", "output"),
			TempDir:   envString("TEMP_DIR", "temp"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ScriptMockOnly reports whether the text-generation backend is unavailable,
// forcing template scripts regardless of the requested mode.
func (c *Config) ScriptMockOnly() bool {
	return c.Script.AnthropicAPIKey == ""
}

// SpeechMockOnly reports whether the network speech provider is unavailable,
// forcing silent mock audio regardless of the requested mode.
func (c *Config) SpeechMockOnly() bool {
	return c.Speech.NaverClientID == "" || c.Speech.NaverClientSecret == ""
}

func (c *Config) validate() error {
	if !validSources[c.Listing.Source] {
		return fmt.Errorf("LISTING_SOURCE must be one of mock, file, postgres; got %q", c.Listing.Source)
	}
	if c.Listing.Source == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when LISTING_SOURCE is postgres")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.QueueSize < 1 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be at least 1, got %d", c.Pipeline.QueueSize)
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("VIDEO_WIDTH and VIDEO_HEIGHT must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("VIDEO_FPS must be positive, got %d", c.Video.FPS)
	}
	if c.Video.Crossfade < 0 {
		return fmt.Errorf("CROSSFADE_MS must not be negative")
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
