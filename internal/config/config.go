package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	TranscriberWhisperCLI = "whisper-cli"
	TranscriberOpenAI     = "openai"
)

type Config struct {
	LLMAPIKey      string  `env:"LLM_API_KEY"`
	LLMProvider    string  `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMBaseURL     string  `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	LLMModel       string  `env:"LLM_MODEL" envDefault:"gemma2-9b-it"`
	LLMTemperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	LLMMaxTokens   int     `env:"LLM_MAX_TOKENS" envDefault:"400"`
	GeminiModel    string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	ExtractMaxAttempts int           `env:"EXTRACT_MAX_ATTEMPTS" envDefault:"3"`
	ExtractRetryDelay  time.Duration `env:"EXTRACT_RETRY_DELAY" envDefault:"1s"`

	Transcriber     string `env:"TRANSCRIBER" envDefault:"whisper-cli"`
	WhisperPath     string `env:"WHISPER_PATH" envDefault:"whisper"`
	WhisperModel    string `env:"WHISPER_MODEL" envDefault:"medium"`
	SourceLanguage  string `env:"SOURCE_LANGUAGE" envDefault:"hi"`
	TranscribeModel string `env:"TRANSCRIBE_MODEL" envDefault:"whisper-large-v3"`

	// Credential and endpoint for TRANSCRIBER=openai, kept apart from the LLM ones.
	TranscribeAPIKey  string `env:"TRANSCRIBE_API_KEY"`
	TranscribeBaseURL string `env:"TRANSCRIBE_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`

	FFmpegPath    string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	AudioBitrate  string `env:"AUDIO_BITRATE" envDefault:"192k"`
	ConversionDir string `env:"CONVERSION_DIR" envDefault:"mp3_conversions"`

	ReadyTimeout      time.Duration `env:"READY_TIMEOUT" envDefault:"15s"`
	ReadyPollInterval time.Duration `env:"READY_POLL_INTERVAL" envDefault:"500ms"`
	InputExtension    string        `env:"INPUT_EXTENSION" envDefault:".mkv"`

	MockLLM        bool `env:"USE_MOCK_LLM"`
	MockTranscribe bool `env:"USE_MOCK_TRANSCRIBE"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile      string
	LogLevel     string
	ReadyTimeout time.Duration
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// The credential keeps its historical names as fallbacks.
	if cfg.LLMAPIKey == "" {
		switch cfg.LLMProvider {
		case ProviderGemini:
			cfg.LLMAPIKey = os.Getenv("GEMINI_API_KEY")
		default:
			cfg.LLMAPIKey = os.Getenv("GROQ_API_KEY")
		}
	}

	// The LLM key is only reused when it was issued for the same endpoint.
	if cfg.TranscribeAPIKey == "" {
		if cfg.LLMProvider == ProviderOpenAI && cfg.LLMBaseURL == cfg.TranscribeBaseURL {
			cfg.TranscribeAPIKey = cfg.LLMAPIKey
		} else {
			cfg.TranscribeAPIKey = os.Getenv("GROQ_API_KEY")
		}
	}

	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ReadyTimeout > 0 {
		cfg.ReadyTimeout = overrides.ReadyTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no run could succeed with.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.Transcriber {
	case TranscriberWhisperCLI, TranscriberOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSCRIBER %q", c.Transcriber))
	}
	if !c.MockLLM && c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY not set"))
	}
	if !c.MockTranscribe && c.Transcriber == TranscriberOpenAI && c.TranscribeAPIKey == "" {
		errs = append(errs, errors.New("TRANSCRIBER=openai needs TRANSCRIBE_API_KEY (or GROQ_API_KEY)"))
	}
	if c.ExtractMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("EXTRACT_MAX_ATTEMPTS must be >= 1, got %d", c.ExtractMaxAttempts))
	}
	if c.ReadyTimeout <= 0 {
		errs = append(errs, errors.New("READY_TIMEOUT must be positive"))
	}
	if c.ReadyPollInterval <= 0 {
		errs = append(errs, errors.New("READY_POLL_INTERVAL must be positive"))
	}
	if !strings.HasPrefix(c.InputExtension, ".") {
		errs = append(errs, fmt.Errorf("INPUT_EXTENSION must start with a dot, got %q", c.InputExtension))
	}
	return errors.Join(errs...)
}
