package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server Server
	Studio Studio
	App    App
}

// Server configures the remote project service (cmd/api).
type Server struct {
	Port        string
	UploadsDir  string
	RedisAddr   string
	DatabaseDSN string
	UploadTTL   time.Duration
}

// Studio configures the local editing runtime (cmd/studio).
type Studio struct {
	DataDir          string
	ServerURL        string
	ProbeTimeout     time.Duration
	HydrationTimeout time.Duration
}

type App struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: Server{
			Port:        getEnv("PORT", "3000"),
			UploadsDir:  getEnv("UPLOADS_DIR", "public/uploads"),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
			DatabaseDSN: getEnv("DB_DSN", ""),
			UploadTTL:   time.Duration(getEnvAsInt("UPLOAD_TTL_HOURS", 0)) * time.Hour,
		},
		Studio: Studio{
			DataDir:          getEnv("DATA_DIR", "data"),
			ServerURL:        getEnv("SERVER_URL", "http://localhost:3000"),
			ProbeTimeout:     time.Duration(getEnvAsInt("PROBE_TIMEOUT_MS", 2000)) * time.Millisecond,
			HydrationTimeout: time.Duration(getEnvAsInt("HYDRATION_TIMEOUT_MS", 500)) * time.Millisecond,
		},
		App: App{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Studio.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}
