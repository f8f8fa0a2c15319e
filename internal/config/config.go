package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// Store backend: postgres when DBURL is set, JSON file otherwise.
	DBURL     string
	StorePath string

	JWTSecret           string
	JWTSecretFile       string
	JWTSecretGenerated  bool // true when the secret was minted this boot
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	AdminEmail    string
	AdminPassword string
	AdminName     string

	AllowedOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Per-user ceiling on the authenticated API surface.
	APIRateLimit  int
	APIRateWindow time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint string
}

func Load() Config {
	// .env is a dev convenience; absence is fine
	_ = godotenv.Load()

	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		Port:                getEnvInt("PORT", 8080),
		DBURL:               getEnv("DATABASE_URL", buildDBURL()),
		StorePath:           getEnv("USERS_STORE_PATH", "data/users.json"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTSecretFile:       getEnv("JWT_SECRET_FILE", ""),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),
		AdminEmail:          getEnv("ADMIN_EMAIL", ""),
		AdminPassword:       getEnv("ADMIN_PASSWORD", ""),
		AdminName:           getEnv("ADMIN_NAME", "Administrator"),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRateLimit:      getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:     time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
		APIRateLimit:        getEnvInt("API_RATE_LIMIT", 120),
		APIRateWindow:       time.Duration(getEnvInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	cfg.resolveSecret()

	return cfg
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

// resolveSecret settles the signing secret: env var wins, then the secret
// file, then a fresh random one. A generated secret is persisted to the
// secret file when one is configured; otherwise it dies with the process
// and every outstanding token dies with it.
func (c *Config) resolveSecret() {
	if c.JWTSecret != "" {
		return
	}

	if c.JWTSecretFile != "" {
		if raw, err := os.ReadFile(c.JWTSecretFile); err == nil {
			if s := strings.TrimSpace(string(raw)); s != "" {
				c.JWTSecret = s
				return
			}
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; there is no
		// safe fallback secret.
		panic("config: cannot generate signing secret: " + err.Error())
	}

	c.JWTSecret = hex.EncodeToString(buf)
	c.JWTSecretGenerated = true

	if c.JWTSecretFile != "" {
		if err := os.WriteFile(c.JWTSecretFile, []byte(c.JWTSecret+"\n"), 0o600); err == nil {
			c.JWTSecretGenerated = false // persisted, survives restarts
		}
	}
}

// buildDBURL assembles a postgres URL from the discrete DB_* variables.
// Empty when no DB_HOST is set, which selects the JSON file store.
func buildDBURL() string {
	host := getEnv("DB_HOST", "")
	if host == "" {
		return ""
	}

	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}
		return num
	}
	return fallback
}
