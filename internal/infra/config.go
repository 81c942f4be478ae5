package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	APISecret       string
	APIKeyExpiresAt time.Time

	MaxConcurrent int
	DailyLimit    int
	DailyWindow   time.Duration
	JobTTL        time.Duration

	LyricsAPIURL  string
	MusicAPIURL   string
	LyricsTimeout time.Duration
	MusicTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeoIPDBPath    string
	AllowedOrigins []string

	RequestsPerSecond float64
	RequestBurst      int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		APISecret:         os.Getenv("API_SECRET"),
		MaxConcurrent:     getEnvInt("MAX_CONCURRENT_REQUESTS", 2),
		DailyLimit:        getEnvInt("DAILY_REQUEST_LIMIT", 30),
		DailyWindow:       time.Second * time.Duration(getEnvInt("DAILY_WINDOW_SECONDS", 86400)),
		JobTTL:            time.Hour * time.Duration(getEnvInt("JOB_TTL_HOURS", 24)),
		LyricsAPIURL:      getEnv("LYRICS_API_URL", "https://ab-sunoai.vercel.app/api/lyrics"),
		MusicAPIURL:       getEnv("MUSIC_API_URL", "https://ab-sunoai.vercel.app/api/song"),
		LyricsTimeout:     time.Second * time.Duration(getEnvInt("LYRICS_TIMEOUT_SECONDS", 30)),
		MusicTimeout:      time.Second * time.Duration(getEnvInt("MUSIC_TIMEOUT_SECONDS", 180)),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:    splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RequestsPerSecond: float64(getEnvInt("RATE_LIMIT_RPS", 100)),
		RequestBurst:      getEnvInt("RATE_LIMIT_BURST", 200),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.APISecret == "" {
		return nil, fmt.Errorf("API_SECRET is required")
	}

	if raw := os.Getenv("API_KEY_EXPIRES_AT"); raw != "" {
		expiry, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("API_KEY_EXPIRES_AT must be RFC3339: %w", err)
		}
		cfg.APIKeyExpiresAt = expiry
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
