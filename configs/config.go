package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Redis        RedisConfig
	Log          LogConfig
	RateLimit    RateLimitConfig
	AdminSession AdminSessionConfig
	Audit        AuditConfig
}

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type StoreConfig struct {
	Driver         string
	MigrationsPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// AuthConfig verifies tokens minted by the hosted identity provider.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Leeway    time.Duration
	// RevocationTTL bounds revocation entries for tokens without an exp claim.
	RevocationTTL time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
	CacheTTL     time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	Window                   time.Duration
	KeyPrefix                string
	// RouteLimits overrides the per-minute limit for "METHOD /path" routes, each counted
	// in its own window.
	RouteLimits map[string]int
}

type AdminSessionConfig struct {
	AllowedDurations []int
}

type AuditConfig struct {
	ExportLimit int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	durations, err := getIntListEnv("ADMIN_SESSION_DURATIONS", []int{15, 30, 60, 120, 240})
	if err != nil {
		return nil, err
	}
	routeLimits, err := getRouteLimitsEnv("RATE_LIMIT_ROUTES", map[string]int{
		"POST /api/v1/admin/sessions":          10,
		"POST /api/v1/employees":               30,
		"POST /api/v1/employees/:id/approve":   30,
		"PUT /api/v1/profiles/:id/permissions": 30,
	})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:    getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:     getEnv("TLS_KEY_FILE", ""),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
			Environment:    getEnv("ENVIRONMENT", "development"),
		},
		Store: StoreConfig{
			Driver:         getEnv("STORE_DRIVER", StorePostgres),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "accesscontrol"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnvRequired("JWT_SECRET"),
			Issuer:        getEnv("JWT_ISSUER", ""),
			Leeway:        getDurationEnv("JWT_LEEWAY", 30*time.Second),
			RevocationTTL: getDurationEnv("JWT_REVOCATION_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:      getBoolEnv("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			CacheTTL:     getDurationEnv("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			DefaultRequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 120),
			BurstMultiplier:          getFloatEnv("RATE_LIMIT_BURST", 2.0),
			Window:                   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			KeyPrefix:                getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit:principal"),
			RouteLimits:              routeLimits,
		},
		AdminSession: AdminSessionConfig{
			AllowedDurations: durations,
		},
		Audit: AuditConfig{
			ExportLimit: getIntEnv("AUDIT_EXPORT_LIMIT", 10000),
		},
	}

	switch cfg.Store.Driver {
	case StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.Store.Driver, StorePostgres, StoreMemory)
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getIntListEnv fails on malformed entries so a typo cannot silently widen an allow-list.
func getIntListEnv(key string, defaultValue []int) ([]int, error) {
	parts := getListEnv(key, nil)
	if parts == nil {
		return defaultValue, nil
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s entry %q", key, p)
		}
		out = append(out, n)
	}
	return out, nil
}

// getRouteLimitsEnv parses "METHOD /path=N" entries separated by commas. Like
// getIntListEnv it rejects malformed entries instead of skipping them.
func getRouteLimitsEnv(key string, defaultValue map[string]int) (map[string]int, error) {
	parts := getListEnv(key, nil)
	if parts == nil {
		return defaultValue, nil
	}
	out := make(map[string]int, len(parts))
	for _, p := range parts {
		route, limit, found := strings.Cut(p, "=")
		fields := strings.Fields(route)
		n, err := strconv.Atoi(strings.TrimSpace(limit))
		if !found || err != nil || n <= 0 || len(fields) != 2 {
			return nil, fmt.Errorf("invalid %s entry %q", key, p)
		}
		out[strings.ToUpper(fields[0])+" "+fields[1]] = n
	}
	return out, nil
}
