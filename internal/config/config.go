package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"contestpush/pkg/realtime"
)

// Config holds settings for the web binary.
type Config struct {
	BindAddr        string
	LogLevel        string
	LogFile         string
	ChannelBuffer   int
	Keepalive       time.Duration
	UserHeader      string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:        bindAddr(),
		LogLevel:        strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFile:         getEnvOrDefault("LOG_FILE", "logs/contestpush.log"),
		ChannelBuffer:   getEnvIntOrDefault("CHANNEL_BUFFER", realtime.DefaultBuffer),
		Keepalive:       time.Duration(getEnvIntOrDefault("KEEPALIVE_SECONDS", 25)) * time.Second,
		UserHeader:      getEnvOrDefault("USER_HEADER", "X-User-Id"),
		ShutdownTimeout: time.Duration(getEnvIntOrDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
	if cfg.ChannelBuffer < 1 {
		cfg.ChannelBuffer = 1
	}
	if cfg.Keepalive < 0 {
		cfg.Keepalive = 0
	}
	return cfg, nil
}

// bindAddr prefers BIND_ADDR, then PORT, then :8080.
func bindAddr() string {
	if addr := strings.TrimSpace(os.Getenv("BIND_ADDR")); addr != "" {
		return addr
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		return ":" + port
	}
	return ":8080"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
