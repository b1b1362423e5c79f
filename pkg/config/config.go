package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	JWTSecret          string
	JWTAccessExpiry    time.Duration
	JWTRefreshExpiry   time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleCalendarID   string

	// AI provider: "openai", "ollama" or "auto" (OpenAI first, Ollama on failure)
	AIProvider    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string

	DBDriver    string
	DatabaseURL string

	TimeZone          string
	SyncStagger       time.Duration
	RefreshSchedule   string
	DemoEventsFile    string
	AdminPasswordHash string
}

// Load reads configuration from the environment, loading .env first if present
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the current environment only
func FromEnv() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:    getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry:   getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:5173"),
		GoogleCalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),
		AIProvider:         getEnv("AI_PROVIDER", "openai"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llama3.1"),
		DBDriver:           getEnv("DB_DRIVER", "memory"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		TimeZone:           getEnv("TIME_ZONE", "Local"),
		SyncStagger:        getDuration("SYNC_STAGGER", 100*time.Millisecond),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", "@every 5m"),
		DemoEventsFile:     getEnv("DEMO_EVENTS_FILE", ""),
		AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
	}
}

// Location resolves TimeZone, falling back to the process zone
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
