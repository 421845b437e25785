package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the meal analysis service
type Config struct {
	// Server configuration
	Port string

	// Storage configuration
	DBPath string

	// OpenAI configuration
	OpenAIAPIKey       string
	TextModel          string
	VisionModels       []string
	TranscriptionModel string
	// TranscriptionLanguage is an ISO-639-1 hint; empty lets the provider
	// auto-detect.
	TranscriptionLanguage string
	Temperature           float64
	MaxTokens             int

	// Provider selection ("openai" or "stub" for no-network runs)
	LLMProvider string

	// Per-call deadlines
	TextTimeout          time.Duration
	VisionTimeout        time.Duration
	TranscriptionTimeout time.Duration

	// Vision fallback: up to VisionAttempts tries per candidate model
	VisionAttempts int

	// Image normalization tunables
	ImageMaxEdge         int
	ImageByteBudget      int
	ImageQualityStart    float64
	ImageQualityStep     float64
	ImageQualityFloor    float64
	ImageHighResPixels   int
	ImageHighResScaleCap float64
	MaxUploadBytes       int64

	// Rate limiting for the analyze endpoints
	RateLimitPerMinute int

	// Default daily targets, used until the user saves their own
	TargetCalories float64
	TargetNetCarbs float64
	TargetProtein  float64
	TargetFat      float64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "ketolog.db"),

		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		TextModel:             getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		VisionModels:          getStringSliceEnv("OPENAI_VISION_MODELS", "gpt-4o,gpt-4o-mini"),
		TranscriptionModel:    getEnv("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
		TranscriptionLanguage: getEnv("OPENAI_TRANSCRIPTION_LANGUAGE", ""),
		Temperature:           getFloatEnv("OPENAI_TEMPERATURE", 0.2),
		MaxTokens:             getIntEnv("OPENAI_MAX_TOKENS", 1000),

		LLMProvider: getEnv("LLM_PROVIDER", "openai"),

		TextTimeout:          getDurationEnv("TEXT_TIMEOUT", 30*time.Second),
		VisionTimeout:        getDurationEnv("VISION_TIMEOUT", 60*time.Second),
		TranscriptionTimeout: getDurationEnv("TRANSCRIPTION_TIMEOUT", 30*time.Second),

		VisionAttempts: getIntEnv("VISION_ATTEMPTS", 2),

		ImageMaxEdge:         getIntEnv("IMAGE_MAX_EDGE", 1024),
		ImageByteBudget:      getIntEnv("IMAGE_BYTE_BUDGET", 200*1024),
		ImageQualityStart:    getFloatEnv("IMAGE_QUALITY_START", 0.7),
		ImageQualityStep:     getFloatEnv("IMAGE_QUALITY_STEP", 0.1),
		ImageQualityFloor:    getFloatEnv("IMAGE_QUALITY_FLOOR", 0.15),
		ImageHighResPixels:   getIntEnv("IMAGE_HIGHRES_PIXELS", 5_000_000),
		ImageHighResScaleCap: getFloatEnv("IMAGE_HIGHRES_SCALE_CAP", 0.4),
		MaxUploadBytes:       int64(getIntEnv("MAX_UPLOAD_BYTES", 100*1024*1024)),

		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),

		TargetCalories: getFloatEnv("TARGET_CALORIES", 1800),
		TargetNetCarbs: getFloatEnv("TARGET_NET_CARBS", 20),
		TargetProtein:  getFloatEnv("TARGET_PROTEIN", 100),
		TargetFat:      getFloatEnv("TARGET_FAT", 140),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getStringSliceEnv gets a comma-separated environment variable as a slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
