package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultGroqModel    = "openai/gpt-oss-120b"
	DefaultGroqBaseURL  = "https://api.groq.com/openai/v1"
	DefaultExaBaseURL   = "https://api.exa.ai"
	DefaultSearchEngine = "exa"
)

type Groq struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	MaxRetries  int
	// Timeout bounds one HTTP round trip to Groq.
	Timeout time.Duration
}

type Exa struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	MaxRetries int
}

type Google struct {
	APIKey   string
	EngineID string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Config holds everything read from the environment at startup.
type Config struct {
	Port           string
	LogLevel       string
	SearchProvider string
	DatabaseURL    string

	Groq   Groq
	Exa    Exa
	Google Google
	Redis  Redis

	EvidenceCacheTTL  time.Duration
	RequestTimeout    time.Duration
	MaxConcurrency    int
	MinContentLength  int
	ExtractChunkChars int
	MaxClaims         int
}

// Load reads an optional .env file and then the process environment.
// Values that fail to parse are reported to logger and replaced by defaults.
func Load(logger *zap.Logger, envFiles ...string) *Config {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logger.Warn("could not load env file", zap.String("file", f), zap.Error(err))
		}
	}

	p := parser{logger: logger}
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SearchProvider: strings.ToLower(getEnv("SEARCH_PROVIDER", DefaultSearchEngine)),
		DatabaseURL:    getString("DATABASE_URL"),
		Groq: Groq{
			APIKey:      getString("GROQ_API_KEY"),
			BaseURL:     getEnv("GROQ_BASE_URL", DefaultGroqBaseURL),
			Model:       getEnv("GROQ_MODEL", DefaultGroqModel),
			Temperature: float32(p.float("GROQ_TEMPERATURE", 0.1)),
			TopP:        float32(p.float("GROQ_TOP_P", 1)),
			MaxRetries:  p.integer("GROQ_MAX_RETRIES", 2),
		},
		Exa: Exa{
			APIKey:     getString("EXA_API_KEY"),
			BaseURL:    getEnv("EXA_BASE_URL", DefaultExaBaseURL),
			MaxResults: p.integer("EXA_MAX_RESULTS", 3),
			MaxRetries: p.integer("EXA_MAX_RETRIES", 2),
		},
		Google: Google{
			APIKey:   getString("GOOGLE_API_KEY"),
			EngineID: getString("GOOGLE_CSE_ID"),
		},
		Redis: Redis{
			Addr:     getString("REDIS_URL"),
			Password: getString("REDIS_PASSWORD"),
			DB:       p.integer("REDIS_DB", 0),
		},
		EvidenceCacheTTL:  p.duration("EVIDENCE_CACHE_TTL", time.Hour),
		RequestTimeout:    p.duration("REQUEST_TIMEOUT", 60*time.Second),
		MaxConcurrency:    p.integer("MAX_CONCURRENCY", 8),
		MinContentLength:  p.integer("MIN_CONTENT_LENGTH", 50),
		ExtractChunkChars: p.integer("EXTRACT_CHUNK_CHARS", 12000),
		MaxClaims:         p.integer("MAX_CLAIMS", 0),
	}
	cfg.Groq.Timeout = cfg.RequestTimeout

	if cfg.MaxConcurrency < 1 {
		logger.Warn("MAX_CONCURRENCY must be positive, using 1", zap.Int("value", cfg.MaxConcurrency))
		cfg.MaxConcurrency = 1
	}
	if cfg.Exa.MaxResults < 1 {
		logger.Warn("EXA_MAX_RESULTS must be positive, using 3", zap.Int("value", cfg.Exa.MaxResults))
		cfg.Exa.MaxResults = 3
	}
	return cfg
}

type parser struct {
	logger *zap.Logger
}

func (p parser) integer(name string, fallback int) int {
	raw := getString(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.logger.Warn("not a valid integer, using fallback",
			zap.String("name", name), zap.Int("fallback", fallback))
		return fallback
	}
	return v
}

func (p parser) float(name string, fallback float64) float64 {
	raw := getString(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.logger.Warn("not a valid number, using fallback",
			zap.String("name", name), zap.Float64("fallback", fallback))
		return fallback
	}
	return v
}

// duration accepts Go duration strings ("90s") or a bare number of seconds.
func (p parser) duration(name string, fallback time.Duration) time.Duration {
	raw := getString(name)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	p.logger.Warn("not a valid duration, using fallback",
		zap.String("name", name), zap.Duration("fallback", fallback))
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := getString(key); value != "" {
		return value
	}
	return defaultValue
}

// getString treats whitespace-only values as unset.
func getString(key string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return strings.TrimSpace(value)
}
