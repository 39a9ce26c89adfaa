package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"buckety-go/pkg/logger"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort       string
	Env            string
	AllowedOrigins []string
	CronSecret     string
	SyncEnabled    bool
	DB             DBConfig
	Supabase       SupabaseConfig
	LocalStore     LocalStoreConfig
	Outbox         OutboxConfig
	Balances       BalancesConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	JWTSecret      string
	AuthTimeout    time.Duration
	TokenCacheTTL  time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type LocalStoreConfig struct {
	Driver string
	Path   string
}

type OutboxConfig struct {
	PollInterval   time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// BalancesConfig holds the money-movement knobs shared by the façade,
// the reconciliation routine and the auto-deposit flows.
type BalancesConfig struct {
	MainBalanceSeed          decimal.Decimal
	ReconcileTolerance       decimal.Decimal
	AutoDepositCreateTimeout time.Duration
	BucketCreateRetries      int
	BucketCreateRetryDelay   time.Duration
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CronSecret:     getEnv("CRON_SECRET", ""),
		SyncEnabled:    getEnvBool("SYNC_ENABLED", true),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "buckety"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", getEnv("NEXT_PUBLIC_SUPABASE_URL", "")),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			TokenCacheTTL:  getEnvDuration("SUPABASE_TOKEN_CACHE_TTL", time.Minute),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		LocalStore: LocalStoreConfig{
			Driver: strings.ToLower(getEnv("LOCAL_STORE_DRIVER", "sqlite")),
			Path:   getEnv("LOCAL_STORE_PATH", "buckety-cache.db"),
		},
		Outbox: OutboxConfig{
			PollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:    getEnvInt("OUTBOX_MAX_ATTEMPTS", 8),
			RetryBaseDelay: getEnvDuration("OUTBOX_RETRY_BASE_DELAY", time.Second),
		},
		Balances: BalancesConfig{
			MainBalanceSeed:          getEnvDecimal("MAIN_BALANCE_SEED", decimal.NewFromInt(1200)),
			ReconcileTolerance:       getEnvDecimal("RECONCILE_TOLERANCE", decimal.RequireFromString("0.01")),
			AutoDepositCreateTimeout: getEnvDuration("AUTO_DEPOSIT_CREATE_TIMEOUT", 5*time.Second),
			BucketCreateRetries:      getEnvInt("BUCKET_CREATE_RETRIES", 3),
			BucketCreateRetryDelay:   getEnvDuration("BUCKET_CREATE_RETRY_DELAY", time.Second),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
