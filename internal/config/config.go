package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/billforge/billforge/internal/types"
)

type Configuration struct {
	Deployment     DeploymentConfig     `validate:"required"`
	Server         ServerConfig         `validate:"required"`
	Logging        LoggingConfig        `validate:"required"`
	Postgres       PostgresConfig       `validate:"required"`
	Billing        BillingConfig        `validate:"required"`
	Payment        PaymentConfig        `validate:"required"`
	Retry          RetryConfig          `validate:"required"`
	CircuitBreaker CircuitBreakerConfig `validate:"required"`
	RateLimit      RateLimitConfig      `validate:"required"`
}

type DeploymentConfig struct {
	Mode string `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

type PostgresConfig struct {
	Host                   string `validate:"required"`
	Port                   int    `validate:"required"`
	User                   string `validate:"required"`
	Password               string
	DBName                 string `validate:"required"`
	SSLMode                string `validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"required"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"required"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"required"`
}

// BillingConfig controls how a billing run walks its candidate invoices.
type BillingConfig struct {
	ChunkSize                  int    `mapstructure:"chunk_size" validate:"required,gt=0"`
	SkipLimit                  int    `mapstructure:"skip_limit" validate:"gte=0"`
	PageSize                   int    `mapstructure:"page_size" validate:"required,gt=0"`
	PreventDuplicateAcrossRuns bool   `mapstructure:"prevent_duplicate_across_runs"`
	Currency                   string `validate:"required,len=3"`
	ActorID                    string `mapstructure:"actor_id" validate:"required"`
	PaymentTypeCode            string `mapstructure:"payment_type_code" validate:"required"`
}

type PaymentConfig struct {
	Strategy           types.PaymentStrategy `validate:"required"`
	BaseURL            string                `mapstructure:"base_url"`
	ValidateMethodPath string                `mapstructure:"validate_method_path"`
	CreateIntentPath   string                `mapstructure:"create_intent_path"`
	ChargeAtWillPath   string                `mapstructure:"charge_at_will_path"`
	TimeoutSeconds     int                   `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	NoopBehavior       types.NoopBehavior    `mapstructure:"noop_behavior"`
}

type RetryConfig struct {
	MaxAttempts         int     `mapstructure:"max_attempts" validate:"required,gt=0"`
	InitialIntervalMs   int     `mapstructure:"initial_interval_ms" validate:"required,gt=0"`
	BackoffMultiplier   float64 `mapstructure:"backoff_multiplier" validate:"required,gt=1"`
	MaxIntervalMs       int     `mapstructure:"max_interval_ms" validate:"required,gt=0"`
	RandomizationFactor float64 `mapstructure:"randomization_factor"`
}

type CircuitBreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests" validate:"required,gt=0"`
	IntervalSeconds  int    `mapstructure:"interval_seconds" validate:"required,gt=0"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	FailureThreshold uint32 `mapstructure:"failure_threshold" validate:"required,gt=0"`
}

type RateLimitConfig struct {
	APIPerMinute     int `mapstructure:"api_per_minute" validate:"required,gt=0"`
	PaymentPerSecond int `mapstructure:"payment_per_second" validate:"required,gt=0"`
	JobPerHour       int `mapstructure:"job_per_hour" validate:"required,gt=0"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// Load .env if present so local overrides reach AutomaticEnv
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billforge")

	v.SetEnvPrefix("BILLFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Payment.Strategy.Validate(); err != nil {
		return err
	}
	if c.Payment.Strategy == types.PaymentStrategyHTTP && c.Payment.BaseURL == "" {
		return fmt.Errorf("payment.base_url is required when payment.strategy is HTTP")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for tests and scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "development"},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: "debug"},
		Postgres: PostgresConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "billforge",
			DBName:                 "billforge",
			SSLMode:                "disable",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Billing: BillingConfig{
			ChunkSize:                  300,
			SkipLimit:                  10000,
			PageSize:                   1000,
			PreventDuplicateAcrossRuns: true,
			Currency:                   "INR",
			ActorID:                    "system-billing",
			PaymentTypeCode:            "RECURRING",
		},
		Payment: PaymentConfig{
			Strategy:       types.PaymentStrategyNoop,
			TimeoutSeconds: 30,
			NoopBehavior:   types.NoopBehaviorSuccess,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialIntervalMs: 1000,
			BackoffMultiplier: 2.0,
			MaxIntervalMs:     10000,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      3,
			IntervalSeconds:  60,
			TimeoutSeconds:   30,
			FailureThreshold: 5,
		},
		RateLimit: RateLimitConfig{
			APIPerMinute:     100,
			PaymentPerSecond: 50,
			JobPerHour:       10,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User, c.Password, c.DBName, c.Host, c.Port, c.SSLMode,
	)
}

func (c PostgresConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeMinutes) * time.Minute
}

func (c PaymentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c RetryConfig) InitialInterval() time.Duration {
	return time.Duration(c.InitialIntervalMs) * time.Millisecond
}

func (c RetryConfig) MaxInterval() time.Duration {
	return time.Duration(c.MaxIntervalMs) * time.Millisecond
}
