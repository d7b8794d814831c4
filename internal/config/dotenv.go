package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	DefaultPreset string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiSize    string

	GenerationLeaseTTL time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		DefaultPreset:            "standard",
		GeminiModel:              "gemini-2.5-flash-image-preview",
		GeminiBaseURL:            "https://generativelanguage.googleapis.com",
		GeminiSize:               "1024x1024",
		GenerationLeaseTTL:       2 * time.Minute,
		RateLimitRequests:        50,
		RateLimitWindow:          time.Minute,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("GAME_PRESET"); raw != "" {
		cfg.DefaultPreset = raw
	}
	if raw := os.Getenv("GEMINI_API_KEY"); raw != "" {
		cfg.GeminiAPIKey = raw
	}
	if raw := os.Getenv("GEMINI_MODEL"); raw != "" {
		cfg.GeminiModel = raw
	}
	if raw := os.Getenv("GEMINI_BASE_URL"); raw != "" {
		cfg.GeminiBaseURL = raw
	}
	if raw := os.Getenv("GEMINI_SIZE"); raw != "" {
		cfg.GeminiSize = raw
	}
	if raw := os.Getenv("GENERATION_LEASE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.GenerationLeaseTTL = time.Duration(value) * time.Second
		}
	}
	if raw := os.Getenv("RATE_LIMIT_REQUESTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RateLimitRequests = value
		}
	}
	if raw := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RateLimitWindow = time.Duration(value) * time.Second
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_TIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}
