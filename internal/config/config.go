package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Scheduler    SchedulerConfig
	Workforce    WorkforceConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowOrigins      string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	// URL, when set, takes precedence over Addr/Password/DB.
	URL      string
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Service     string
	Env         string
	Development bool
	// SampleInitial and SampleThereafter enable zap sampling per second when
	// SampleThereafter is positive.
	SampleInitial    int
	SampleThereafter int
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// SchedulerConfig configures the asynq background worker.
type SchedulerConfig struct {
	Queue              string
	Concurrency        int
	LicenseSweepCron   string
	ReconcileCron      string
	TaskTimeoutSeconds int
}

// ScoringWeights are the multi-factor ranking weights. They must sum to 1.
type ScoringWeights struct {
	TerritoryMatch      float64
	SpecializationMatch float64
	WorkloadCapacity    float64
	PerformanceScore    float64
	Availability        float64
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.TerritoryMatch + w.SpecializationMatch + w.WorkloadCapacity + w.PerformanceScore + w.Availability
}

// WorkforceConfig drives the staff lifecycle and assignment core.
type WorkforceConfig struct {
	DefaultMaxLeads           int
	DefaultMaxCustomers       int
	WarningThreshold          float64
	BlockThreshold            float64
	Weights                   ScoringWeights
	DefaultRecommendations    int
	OptimisticRetryAttempts   int
	StatusLockTTL             time.Duration
	LicenseAlertThresholdDays []int
	LicenseAlertDedupTTL      time.Duration
}

// DefaultWorkforceConfig returns the production defaults for the core.
func DefaultWorkforceConfig() WorkforceConfig {
	return WorkforceConfig{
		DefaultMaxLeads:     20,
		DefaultMaxCustomers: 60,
		WarningThreshold:    0.8,
		BlockThreshold:      1.0,
		Weights: ScoringWeights{
			TerritoryMatch:      0.30,
			SpecializationMatch: 0.20,
			WorkloadCapacity:    0.25,
			PerformanceScore:    0.15,
			Availability:        0.10,
		},
		DefaultRecommendations:    5,
		OptimisticRetryAttempts:   5,
		StatusLockTTL:             10 * time.Second,
		LicenseAlertThresholdDays: []int{30, 14, 7, 1},
		LicenseAlertDedupTTL:      48 * time.Hour,
	}
}

// Validate rejects configurations the core cannot run with.
func (w WorkforceConfig) Validate() error {
	if w.DefaultMaxLeads <= 0 || w.DefaultMaxCustomers <= 0 {
		return fmt.Errorf("default capacity maxima must be positive")
	}
	if w.WarningThreshold <= 0 || w.BlockThreshold <= 0 || w.WarningThreshold > w.BlockThreshold {
		return fmt.Errorf("invalid capacity thresholds warning=%v block=%v", w.WarningThreshold, w.BlockThreshold)
	}
	if math.Abs(w.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", w.Weights.Sum())
	}
	if w.OptimisticRetryAttempts < 1 {
		return fmt.Errorf("optimistic retry attempts must be at least 1")
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	workforce := DefaultWorkforceConfig()
	workforce.DefaultMaxLeads = getEnvAsInt("WORKFORCE_DEFAULT_MAX_LEADS", workforce.DefaultMaxLeads)
	workforce.DefaultMaxCustomers = getEnvAsInt("WORKFORCE_DEFAULT_MAX_CUSTOMERS", workforce.DefaultMaxCustomers)
	workforce.WarningThreshold = getEnvAsFloat("WORKFORCE_CAPACITY_WARNING", workforce.WarningThreshold)
	workforce.BlockThreshold = getEnvAsFloat("WORKFORCE_CAPACITY_BLOCK", workforce.BlockThreshold)
	workforce.DefaultRecommendations = getEnvAsInt("WORKFORCE_RECOMMENDATIONS", workforce.DefaultRecommendations)
	workforce.OptimisticRetryAttempts = getEnvAsInt("WORKFORCE_RETRY_ATTEMPTS", workforce.OptimisticRetryAttempts)
	workforce.StatusLockTTL = time.Duration(getEnvAsInt("WORKFORCE_STATUS_LOCK_TTL_SECONDS", 10)) * time.Second
	workforce.LicenseAlertDedupTTL = time.Duration(getEnvAsInt("WORKFORCE_LICENSE_ALERT_DEDUP_HOURS", 48)) * time.Hour
	if days := getEnvAsIntList("WORKFORCE_LICENSE_ALERT_DAYS"); len(days) > 0 {
		workforce.LicenseAlertThresholdDays = days
	}
	if err := workforce.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workforce config: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "workforce-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowOrigins:      getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:            getEnv("LOG_LEVEL", "info"),
			Service:          getEnv("APP_NAME", "workforce-service"),
			Env:              getEnv("APP_ENV", "development"),
			Development:      getEnvAsBool("LOG_DEVELOPMENT", false),
			SampleInitial:    getEnvAsInt("LOG_SAMPLE_INITIAL", 100),
			SampleThereafter: getEnvAsInt("LOG_SAMPLE_THEREAFTER", 100),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Scheduler: SchedulerConfig{
			Queue:              getEnv("ASYNQ_QUEUE", "workforce"),
			Concurrency:        getEnvAsInt("ASYNQ_CONCURRENCY", 5),
			LicenseSweepCron:   getEnv("LICENSE_SWEEP_CRON", "0 6 * * *"),
			ReconcileCron:      getEnv("TERRITORY_RECONCILE_CRON", "30 3 * * *"),
			TaskTimeoutSeconds: getEnvAsInt("ASYNQ_TASK_TIMEOUT_SECONDS", 300),
		},
		Workforce: workforce,
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TaskTimeout returns the per-task deadline for background jobs.
func (s SchedulerConfig) TaskTimeout() time.Duration {
	if s.TaskTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.TaskTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsIntList parses "30,14,7" style values, skipping malformed entries.
func getEnvAsIntList(key string) []int {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(val, ",") {
		parsed, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || parsed < 0 {
			continue
		}
		out = append(out, parsed)
	}
	return out
}
