package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"

	EventsTransportKafka   = "kafka"
	EventsTransportChannel = "channel"

	AuthProviderCasdoor = "casdoor"
	AuthProviderJWT     = "jwt"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	Database DatabaseConfig
	RedisURL string

	AuthProvider string
	JWT          JWTConfig
	Casdoor      CasdoorConfig

	Events    EventsConfig
	RateLimit RateLimitConfig

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	SQLitePath      string
	MongoURI        string
	MongoDBName     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type EventsConfig struct {
	Enabled      bool
	Transport    string
	KafkaBrokers []string
	TopicPrefix  string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:        GetEnv("PORT", "8080"),
		Environment: GetEnv("ENVIRONMENT", "development"),
		LogLevel:    ParseLogLevel(GetEnv("LOG_LEVEL", "info")),
		Database: DatabaseConfig{
			Driver:          strings.ToLower(GetEnv("DB_DRIVER", DriverPostgres)),
			URL:             GetEnv("DATABASE_URL", ""),
			SQLitePath:      GetEnv("SQLITE_PATH", "assessment.db"),
			MongoURI:        GetEnv("MONGO_URI", ""),
			MongoDBName:     GetEnv("MONGO_DB_NAME", "assessment"),
			MaxOpenConns:    GetEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    GetEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(GetEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			AutoMigrate:     GetEnvBool("DB_AUTO_MIGRATE", true),
		},
		RedisURL:     GetEnv("REDIS_URL", ""),
		AuthProvider: strings.ToLower(GetEnv("AUTH_PROVIDER", AuthProviderCasdoor)),
		JWT: JWTConfig{
			Secret: GetEnv("JWT_SECRET", ""),
			Issuer: GetEnv("JWT_ISSUER", ""),
		},
		Casdoor: CasdoorConfig{
			Endpoint:     GetEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     GetEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: GetEnv("CASDOOR_CLIENT_SECRET", ""),
			Cert:         GetEnv("CASDOOR_CERTIFICATE", ""),
			Organization: GetEnv("CASDOOR_ORGANIZATION", ""),
			Application:  GetEnv("CASDOOR_APPLICATION", ""),
		},
		Events: EventsConfig{
			Enabled:      GetEnvBool("EVENTS_ENABLED", false),
			Transport:    strings.ToLower(GetEnv("EVENTS_TRANSPORT", EventsTransportKafka)),
			KafkaBrokers: GetEnvList("KAFKA_BROKERS", nil),
			TopicPrefix:  GetEnv("KAFKA_TOPIC_PREFIX", "assessment"),
		},
		RateLimit: RateLimitConfig{
			RPS:   GetEnvFloat("RATE_LIMIT_RPS", 20),
			Burst: GetEnvInt("RATE_LIMIT_BURST", 40),
		},
		CORSAllowedOrigins: GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout:    time.Duration(GetEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %q", c.Database.Driver)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for driver %q", c.Database.Driver)
		}
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for driver %q", c.Database.Driver)
		}
		if c.Database.MongoDBName == "" {
			return fmt.Errorf("MONGO_DB_NAME is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	// Casdoor is the user directory for every auth provider.
	if c.Casdoor.Endpoint == "" {
		return fmt.Errorf("CASDOOR_ENDPOINT is required")
	}

	switch c.AuthProvider {
	case AuthProviderCasdoor:
	case AuthProviderJWT:
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.Events.Enabled {
		switch c.Events.Transport {
		case EventsTransportKafka:
			if len(c.Events.KafkaBrokers) == 0 {
				return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_TRANSPORT=kafka")
			}
		case EventsTransportChannel:
		default:
			return fmt.Errorf("unsupported EVENTS_TRANSPORT %q", c.Events.Transport)
		}
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be greater than 0")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvList splits a comma separated value, dropping empty items.
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
