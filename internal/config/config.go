// Package config provides configuration for the trace relay.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the relay configuration.
type Config struct {
	// Server settings
	Port int

	// Mode selects mock collaborators when set to MOCK.
	Mode string

	// Collaborators
	TraceGeneratorURL string
	ExplainerURL      string
	ExplainerProvider string // http, anthropic or mock
	AnthropicAPIKey   string
	AnthropicModel    string

	// Timeouts
	TraceTimeout   time.Duration
	ExplainTimeout time.Duration

	// Explainer throttle; a zero rate disables it.
	ExplainRatePerSec float64
	ExplainBurst      int

	// Streaming
	BaseFrameDelay time.Duration

	// Admission
	MaxArrayLength int

	// Journal
	JournalDSN string

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:              getEnvInt("PORT", 8080),
		Mode:              getEnv("ALGOSTREAM_MODE", ""),
		TraceGeneratorURL: getEnv("TRACE_GENERATOR_URL", "http://localhost:8000"),
		ExplainerURL:      getEnv("EXPLAINER_URL", "http://localhost:8000"),
		ExplainerProvider: getEnv("EXPLAINER_PROVIDER", "http"),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		TraceTimeout:      time.Duration(getEnvInt("TRACE_TIMEOUT_MS", 30000)) * time.Millisecond,
		ExplainTimeout:    time.Duration(getEnvInt("EXPLAIN_TIMEOUT_MS", 15000)) * time.Millisecond,
		ExplainRatePerSec: getEnvFloat("EXPLAIN_RATE_PER_SEC", 0),
		ExplainBurst:      getEnvInt("EXPLAIN_BURST", 1),
		BaseFrameDelay:    time.Duration(getEnvInt("BASE_FRAME_DELAY_MS", 1000)) * time.Millisecond,
		MaxArrayLength:    getEnvInt("MAX_ARRAY_LENGTH", 64),
		JournalDSN:        getEnv("JOURNAL_DSN", ":memory:"),
		PingInterval:      time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:      time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:       time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:    int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
