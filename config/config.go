package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultDatabasePath       = "docregistry.db"
	defaultMaxOpenConns       = 100
	defaultMaxIdleConns       = 10
	defaultConnMaxLifetimeMin = 60
	defaultPort               = "8080"
	defaultAllowedOrigins     = "http://localhost:5173"
)

type Config struct {
	// database settings
	DatabaseDriver  string // "sqlite" or "postgres"
	DatabasePath    string // sqlite file
	DatabaseURL     string // postgres connection string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DBLogLevel      string // silent, error, warn, info

	// logging
	LogLevel  string
	LogFormat string // text or json

	// http
	Port           string
	AllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		logrus.WithFields(logrus.Fields{
			"variable": envVar,
			"value":    valStr,
			"default":  defaultVal,
		}).Warn("Invalid integer setting, using default")
		return defaultVal
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	driver := strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverSQLite && driver != DriverPostgres {
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER '%s' (want %s or %s)", driver, DriverSQLite, DriverPostgres)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if driver == DriverPostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is %s", DriverPostgres)
	}

	lifetime := getEnvIntOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", defaultConnMaxLifetimeMin)

	cfg := Config{
		DatabaseDriver:  driver,
		DatabasePath:    getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		DatabaseURL:     dbURL,
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
		MaxIdleConns:    getEnvIntOrDefault("DB_MAX_IDLE_CONNS", defaultMaxIdleConns),
		ConnMaxLifetime: time.Duration(lifetime) * time.Minute,
		DBLogLevel:      strings.ToLower(getEnvOrDefault("DB_LOG_LEVEL", "warn")),
		LogLevel:        strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		Port:            getEnvOrDefault("PORT", defaultPort),
		AllowedOrigins:  splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins)),
	}

	return cfg, nil
}

// ConfigureLogging applies LogLevel and LogFormat to the logrus standard logger.
func ConfigureLogging(cfg Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
