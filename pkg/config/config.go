package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	OllamaBaseURL string
	OllamaModel   string

	OpenRouterAPIKey   string
	OpenRouterBase     string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string

	DefaultProvider   string
	CatalogTTLSeconds int

	CORSOrigins string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	cfg := Config{
		Port: getEnv("PORT", "8080"),

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "thinkthread"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     getEnv("JWT_ISSUER", "thinkthread"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 1440),

		// An explicitly blanked base URL disables the Ollama provider.
		OllamaBaseURL: getEnvAllowEmpty("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2"),

		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:     os.Getenv("OPENROUTER_BASE_URL"),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", "meta-llama/llama-3.3-70b-instruct"),
		OpenRouterAppTitle: getEnv("OPENROUTER_APP_TITLE", "ThinkThread"),
		OpenRouterReferer:  os.Getenv("OPENROUTER_REFERER"),

		DefaultProvider:   getEnv("DEFAULT_PROVIDER", "auto"),
		CatalogTTLSeconds: getEnvInt("CATALOG_TTL_SECONDS", 300),

		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvAllowEmpty falls back to the default only when the variable is
// unset; an empty value set on purpose is kept.
func getEnvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
