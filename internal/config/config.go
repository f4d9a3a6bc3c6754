package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type envConfig struct {
	// server config
	APP_PORT         string
	PORTAL_URL       string
	CORS_ORIGINS     []string
	SHUTDOWN_TIMEOUT time.Duration
	// store config
	STORE_DRIVER    string
	DB_AUTO_MIGRATE bool
	// database config
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	// auth config
	JWT_SECRET string
	JWT_TTL    time.Duration
	// uploads
	UPLOAD_DIR string
	// search directory, empty URL disables it
	ELASTIC_URL   string
	ELASTIC_INDEX string
	// audit log, empty project disables Datastore
	DATASTORE_PROJECT_ID string
	// outbound email events, empty broker logs instead
	KAFKA_BROKER      string
	KAFKA_EMAIL_TOPIC string
	// seeding
	SEED_DEFAULT_PASSWORD string
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
	LOG_FORMAT    string
}

// LoadEnvConfig reads .env (when present) and the process environment.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:              getEnvString("APP_PORT", "8080"),
		PORTAL_URL:            getEnvString("PORTAL_URL", "http://localhost:3000"),
		CORS_ORIGINS:          getEnvList("CORS_ORIGINS", []string{"*"}),
		SHUTDOWN_TIMEOUT:      getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		STORE_DRIVER:          getEnvString("STORE_DRIVER", StoreDriverPostgres),
		DB_AUTO_MIGRATE:       getEnvBool("DB_AUTO_MIGRATE", true),
		DB_HOST:               getEnvString("DB_HOST", "localhost"),
		DB_PORT:               getEnvInt("DB_PORT", 5432),
		DB_USER:               getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:           getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:               getEnvString("DB_NAME", "onboarding"),
		DB_SSL_MODE:           getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME:  getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:     getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:     getEnvInt("DB_MAX_OPEN_CONNS", 100),
		JWT_SECRET:            getEnvString("JWT_SECRET", "change-me-in-production"),
		JWT_TTL:               getEnvDuration("JWT_TTL", 12*time.Hour),
		UPLOAD_DIR:            getEnvString("UPLOAD_DIR", "uploads"),
		ELASTIC_URL:           getEnvString("ELASTIC_URL", ""),
		ELASTIC_INDEX:         getEnvString("ELASTIC_INDEX", "onboarding_employees"),
		DATASTORE_PROJECT_ID:  getEnvString("DATASTORE_PROJECT_ID", ""),
		KAFKA_BROKER:          getEnvString("KAFKA_BROKER", ""),
		KAFKA_EMAIL_TOPIC:     getEnvString("KAFKA_EMAIL_TOPIC", "onboarding.email"),
		SEED_DEFAULT_PASSWORD: getEnvString("SEED_DEFAULT_PASSWORD", "Welcome@123"),
		LOG_FILE_PATH:         getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:             getEnvString("LOG_LEVEL", "info"),
		LOG_FORMAT:            getEnvString("LOG_FORMAT", "json"),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
