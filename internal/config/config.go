package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sitesmith/sitesmith/internal/images"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given and the file exists
const DefaultPath = "sitesmith.yaml"

// Config is built once at startup and passed to every component.
type Config struct {
	Port            string        `yaml:"port"`
	ContentRoot     string        `yaml:"content_root"`
	CORSOrigin      string        `yaml:"cors_origin"`
	ContentLanguage string        `yaml:"content_language"`
	FontAwesomeKit  string        `yaml:"font_awesome_kit"`
	HistoryDB       string        `yaml:"history_db"`
	Log             LogConfig     `yaml:"log"`
	LLM             LLMConfig     `yaml:"llm"`
	Images          ImagesConfig  `yaml:"images"`
	Maps            MapsConfig    `yaml:"maps"`
	Speech          SpeechConfig  `yaml:"speech"`
	Storage         StorageConfig `yaml:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type LLMConfig struct {
	Provider    string      `yaml:"provider"` // groq, openai, ollama, gemini
	Model       string      `yaml:"model"`
	BaseURL     string      `yaml:"base_url"`
	APIKey      string      `yaml:"api_key"`
	Temperature float64     `yaml:"temperature"`
	MaxTokens   int         `yaml:"max_tokens"`
	Retry       RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

type ImagesConfig struct {
	PexelsAPIKey  string             `yaml:"pexels_api_key"`
	PixabayAPIKey string             `yaml:"pixabay_api_key"`
	Attempts      int                `yaml:"attempts"`
	PerPage       int                `yaml:"per_page"`
	MinMatches    int                `yaml:"min_matches"`
	Placeholder   string             `yaml:"placeholder"`
	Vocabulary    *images.Vocabulary `yaml:"vocabulary"`
}

type MapsConfig struct {
	APIKey string `yaml:"api_key"`
}

type SpeechConfig struct {
	APIKey     string        `yaml:"api_key"`
	Language   string        `yaml:"language"`
	FFmpegPath string        `yaml:"ffmpeg_path"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type StorageConfig struct {
	Backend string   `yaml:"backend"` // local or s3
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:            "5000",
		ContentRoot:     "static",
		CORSOrigin:      "http://localhost:3000",
		ContentLanguage: "French",
		HistoryDB:       "sitesmith.db",
		Log:             LogConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:    "groq",
			Temperature: 0.7,
			MaxTokens:   2000,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 4 * time.Second,
				MaxInterval:     10 * time.Second,
			},
		},
		Images: ImagesConfig{
			Attempts:    3,
			PerPage:     3,
			MinMatches:  2,
			Placeholder: "/static/real_image.jpg",
		},
		Speech: SpeechConfig{
			Language:   "en-US",
			FFmpegPath: "ffmpeg",
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		Storage: StorageConfig{Backend: "local"},
	}
}

// Load builds a Config from defaults, an optional YAML file and the environment.
// A missing file is only an error when it was asked for explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.ContentRoot, "CONTENT_ROOT")
	setString(&c.CORSOrigin, "CORS_ORIGIN")
	setString(&c.ContentLanguage, "CONTENT_LANGUAGE")
	setString(&c.FontAwesomeKit, "FONT_AWESOME_KIT")
	// HISTORY_DB may be set to the empty string to disable history
	if v, ok := os.LookupEnv("HISTORY_DB"); ok {
		c.HistoryDB = v
	}
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFloat(&c.LLM.Temperature, "LLM_TEMPERATURE")
	setInt(&c.LLM.MaxTokens, "LLM_MAX_TOKENS")

	setString(&c.Images.PexelsAPIKey, "PEXELS_API_KEY")
	setString(&c.Images.PixabayAPIKey, "PIXABAY_API_KEY")

	setString(&c.Maps.APIKey, "GOOGLEMAPS_KEY")

	setString(&c.Speech.APIKey, "GOOGLE_SPEECH_API_KEY")
	setString(&c.Speech.Language, "SPEECH_LANGUAGE")
	setString(&c.Speech.FFmpegPath, "FFMPEG_PATH")

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.S3.Bucket, "S3_BUCKET")
	setString(&c.Storage.S3.Prefix, "S3_PREFIX")
	setString(&c.Storage.S3.Region, "S3_REGION")
	setString(&c.Storage.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Storage.S3.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&c.Storage.S3.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	if v := os.Getenv("S3_USE_PATH_STYLE"); v != "" {
		c.Storage.S3.UsePathStyle, _ = strconv.ParseBool(v)
	}
}

// applyProviderDefaults fills the LLM key, model and base URL for the selected provider.
func (c *Config) applyProviderDefaults() {
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)

	var keyEnv, model, baseURL string
	switch c.LLM.Provider {
	case "groq":
		keyEnv, model, baseURL = "GROQ_API_KEY", "llama3-70b-8192", "https://api.groq.com/openai/v1"
	case "openai":
		keyEnv, model, baseURL = "OPENAI_API_KEY", "gpt-4o", "https://api.openai.com/v1"
	case "ollama":
		model, baseURL = "llama3", "http://localhost:11434"
		if v := os.Getenv("OLLAMA_URL"); v != "" && c.LLM.BaseURL == "" {
			c.LLM.BaseURL = v
		}
		if v := os.Getenv("OLLAMA_MODEL"); v != "" && c.LLM.Model == "" {
			c.LLM.Model = v
		}
	case "gemini":
		keyEnv, model = "GEMINI_API_KEY", "gemini-1.5-flash"
	}

	if keyEnv != "" {
		setString(&c.LLM.APIKey, keyEnv)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = model
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = baseURL
	}

	if c.Speech.APIKey == "" {
		c.Speech.APIKey = c.Maps.APIKey
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "groq", "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	switch c.Storage.Backend {
	case "local":
		if c.ContentRoot == "" {
			return fmt.Errorf("content root is required for local storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if c.Images.Attempts < 1 {
		return fmt.Errorf("images.attempts must be at least 1")
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1")
	}
	return nil
}

// VocabularyOrDefault returns the configured refiner vocabulary or the built-in one.
func (c ImagesConfig) VocabularyOrDefault() images.Vocabulary {
	if c.Vocabulary == nil {
		return images.DefaultVocabulary()
	}
	return *c.Vocabulary
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring invalid integer in environment", "key", key, "value", v)
		return
	}
	*dst = n
}

func setFloat(dst *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Ignoring invalid number in environment", "key", key, "value", v)
		return
	}
	*dst = f
}
