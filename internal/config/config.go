package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kweza/remit-backoffice-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CustomerCacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase (PostgREST persistence)
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	// Admin auth (actor identity for audit entries)
	JWTSecret string

	// Cap enforcement
	DefaultMonthlyCap decimal.Decimal
	DefaultAnchorDay  int

	// Bonus engine
	BonusMinAmount     decimal.Decimal
	BonusCooldown      time.Duration
	BonusValidity      time.Duration
	BonusCycleLength   int
	Milestones         []domain.Milestone
	RefIDInsertRetries int

	// Compliance SLA windows by severity
	SLAWindows map[domain.Severity]time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CustomerCacheTTL: getEnvDuration("CUSTOMER_CACHE_TTL", 1*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		JWTSecret: getEnv("JWT_SECRET", "remit-default-dev-secret-change-me"),

		DefaultMonthlyCap: getEnvDecimal("DEFAULT_MONTHLY_CAP", decimal.NewFromInt(5000)),
		DefaultAnchorDay:  getEnvInt("DEFAULT_ANCHOR_DAY", 1),

		BonusMinAmount:     getEnvDecimal("BONUS_MIN_AMOUNT", decimal.NewFromInt(85)),
		BonusCooldown:      getEnvDuration("BONUS_COOLDOWN", 24*time.Hour),
		BonusValidity:      getEnvDuration("BONUS_VALIDITY", 90*24*time.Hour),
		BonusCycleLength:   getEnvInt("BONUS_CYCLE_LENGTH", 12),
		Milestones:         getEnvMilestones("BONUS_MILESTONES", DefaultMilestones()),
		RefIDInsertRetries: getEnvInt("REFID_INSERT_RETRIES", 3),

		SLAWindows: map[domain.Severity]time.Duration{
			domain.SeverityCritical: getEnvDuration("SLA_CRITICAL", 8*time.Hour),
			domain.SeverityHigh:     getEnvDuration("SLA_HIGH", 24*time.Hour),
			domain.SeverityMedium:   getEnvDuration("SLA_MEDIUM", 48*time.Hour),
			domain.SeverityLow:      getEnvDuration("SLA_LOW", 72*time.Hour),
		},
	}
}

// DefaultMilestones is the production milestone table: the persisted
// tier enum also allows tiers 1-3, which are reserved and not wired up.
func DefaultMilestones() []domain.Milestone {
	return []domain.Milestone{
		{Transfers: 4, Tier: 4, Amount: decimal.NewFromInt(500)},
		{Transfers: 8, Tier: 8, Amount: decimal.NewFromInt(700)},
		{Transfers: 12, Tier: 12, Amount: decimal.NewFromInt(1000)},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvMilestones parses "4:500,8:700,12:1000" into a milestone table.
// The transfer count doubles as the tier number.
func getEnvMilestones(key string, fallback []domain.Milestone) []domain.Milestone {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var table []domain.Milestone
	for _, pair := range strings.Split(v, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return fallback
		}
		n, err := strconv.Atoi(parts[0])
		if err != nil || n <= 0 {
			return fallback
		}
		amount, err := decimal.NewFromString(parts[1])
		if err != nil {
			return fallback
		}
		table = append(table, domain.Milestone{Transfers: n, Tier: n, Amount: amount})
	}
	return table
}
