package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB     DBConfig
	JWT    JWTConfig
	Server ServerConfig
	OAuth  OAuthConfig
	Redis  RedisConfig
	MinIO  MinIOConfig
	Audit  AuditConfig
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Host        string
	Port        string
	FrontendURL string
	BodyLimit   int
}

type OAuthConfig struct {
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRedirectURL  string
}

type RedisConfig struct {
	URL string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AuditConfig struct {
	ExportInterval time.Duration
	QueueSize      int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "shared_lists"),
			Password:   getEnv("DB_PASSWORD", "shared_lists"),
			Name:       getEnv("DB_NAME", "shared_lists"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "shared_lists.db"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24*7),
		},
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
			BodyLimit:   getEnvAsInt("SERVER_BODY_LIMIT", 1024*1024),
		},
		OAuth: OAuthConfig{
			TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
			TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
			TwitchRedirectURL:  getEnv("TWITCH_REDIRECT_URI", "http://localhost:8080/api/auth/callback"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		MinIO: MinIOConfig{
			Enabled:   getEnvAsBool("MINIO_ENABLED", false),
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "shared-lists-audit"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		Audit: AuditConfig{
			ExportInterval: getEnvAsDuration("AUDIT_EXPORT_INTERVAL", 1*time.Hour),
			QueueSize:      getEnvAsInt("AUDIT_QUEUE_SIZE", 1000),
		},
	}
}

func (s ServerConfig) ListenAddr() string {
	return s.Host + ":" + s.Port
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (s ServerConfig) SecureCookies() bool {
	return strings.HasPrefix(s.FrontendURL, "https://")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
