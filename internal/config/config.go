package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// PlaceholderAPIKey is the sentinel shipped in sample env files. It means
// "no credential configured".
const PlaceholderAPIKey = "sua-chave-aqui"

const (
	StrategyStream   = "stream"
	StrategyDownload = "download"
)

type Config struct {
	Port int `env:"PORT" envDefault:"3001"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"whisper-1"`

	WorkDir     string `env:"WORK_DIR" envDefault:"uploads"`
	DownloadDir string `env:"DOWNLOAD_DIR" envDefault:"downloads"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"dist"`

	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"` // 100MB
	SweepAge       time.Duration `env:"SWEEP_AGE" envDefault:"1h"`

	YouTubeStrategy     string        `env:"YOUTUBE_STRATEGY" envDefault:"stream"`
	AcquireTimeout      time.Duration `env:"ACQUIRE_TIMEOUT" envDefault:"10m"`
	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10m"`
	SimulateSkipAcquire bool          `env:"SIMULATE_SKIP_ACQUIRE" envDefault:"false"`

	YTDLPBinary   string `env:"YTDLP_BINARY" envDefault:"yt-dlp"`
	FFmpegBinary  string `env:"FFMPEG_BINARY" envDefault:"ffmpeg"`
	FFprobeBinary string `env:"FFPROBE_BINARY" envDefault:"ffprobe"`

	// CORS origins: comma-separated list or "*"
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	// Requests per minute per IP on transcribe routes, 0 disables
	RateLimit int `env:"RATE_LIMIT" envDefault:"30"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	origins := make([]string, 0, len(cfg.CORSOrigins))
	for _, o := range cfg.CORSOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSOrigins = origins

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.YouTubeStrategy {
	case StrategyStream, StrategyDownload:
	default:
		return fmt.Errorf("YOUTUBE_STRATEGY must be %q or %q, got %q", StrategyStream, StrategyDownload, c.YouTubeStrategy)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.AcquireTimeout <= 0 || c.ProviderTimeout <= 0 {
		return fmt.Errorf("ACQUIRE_TIMEOUT and PROVIDER_TIMEOUT must be positive")
	}
	return nil
}

// HasProviderKey reports whether a real speech-to-text credential is set.
func (c *Config) HasProviderKey() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIAPIKey != PlaceholderAPIKey
}
