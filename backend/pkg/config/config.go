package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// AI (OpenAI-compatible endpoint, e.g. LiteLLM)
	LiteLLMURL   string
	OpenAIAPIKey string
	ModelID      string

	// Text-to-speech
	TTSModelID string
	TTSVoice   string

	// Redis (durable project store; in-memory fallback when unset)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Neo4j (optional graph mirror; disabled when URI is unset)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Timeouts
	GenerationTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LiteLLMURL:        getEnv("LITELLM_URL", "http://localhost:4000"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		ModelID:           getEnv("MODEL_ID", "gemini/gemini-2.5-flash-lite"),
		TTSModelID:        getEnv("TTS_MODEL_ID", "tts-1"),
		TTSVoice:          getEnv("TTS_VOICE", "alloy"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		Neo4jURI:          getEnv("NEO4J_URI", ""),
		Neo4jUser:         getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:     getEnv("NEO4J_PASSWORD", ""),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 120*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.LiteLLMURL == "" {
		return fmt.Errorf("LITELLM_URL is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID is required")
	}
	if c.Neo4jURI != "" && c.Neo4jPassword == "" {
		return fmt.Errorf("NEO4J_PASSWORD is required when NEO4J_URI is set")
	}
	// Redis and Neo4j are optional: the in-memory store and a disabled
	// mirror are the development defaults.
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RedisConfigured reports whether a durable store address is set
func (c *Config) RedisConfigured() bool {
	return c.RedisAddr != ""
}

// Neo4jConfigured reports whether the graph mirror is enabled
func (c *Config) Neo4jConfigured() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
