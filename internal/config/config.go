package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DialectSQLite   = "sqlite"
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// Config holds the harness constants. Every field has a default and can be
// overridden from the environment or a .env file in the working directory.
type Config struct {
	DB         DBConfig
	Log        LogConfig
	Seed       SeedConfig
	Query      QueryConfig
	Update     UpdateConfig
	Checkpoint CheckpointConfig
	Metrics    MetricsConfig
}

type DBConfig struct {
	Dialect  string
	DSN      string
	LogLevel string
}

type LogConfig struct {
	Level string
}

type SeedConfig struct {
	Total              int
	BatchSize          int
	IDPrefix           string
	IDWidth            int
	AddressesPerWallet int
	Reset              bool
}

type QueryConfig struct {
	WalletType    string
	PageSize      int
	Lookahead     bool
	CompareOffset bool
	CompareRaw    bool
}

type UpdateConfig struct {
	WalletType string
	Balance    string
}

type CheckpointConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
	TTL           time.Duration
}

type MetricsConfig struct {
	File string
}

// Load reads .env (if present) and the environment. A value that does not
// parse as its field's type is an error, never a silent default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := new(envReader)
	cfg := &Config{
		DB: DBConfig{
			Dialect:  strings.ToLower(env.String("DB_DIALECT", DialectSQLite)),
			DSN:      env.String("DB_DSN", "wallet.db"),
			LogLevel: strings.ToLower(env.String("DB_LOG_LEVEL", "warn")),
		},
		Log: LogConfig{
			Level: env.String("LOG_LEVEL", "info"),
		},
		Seed: SeedConfig{
			Total:              env.Int("SEED_TOTAL", 1_000_000),
			BatchSize:          env.Int("SEED_BATCH_SIZE", 5000),
			IDPrefix:           env.String("SEED_ID_PREFIX", "w"),
			IDWidth:            env.Int("SEED_ID_WIDTH", 8),
			AddressesPerWallet: env.Int("SEED_ADDRESSES_PER_WALLET", 20),
			Reset:              env.Bool("SEED_RESET", true),
		},
		Query: QueryConfig{
			WalletType:    env.String("QUERY_WALLET_TYPE", "api"),
			PageSize:      env.Int("QUERY_PAGE_SIZE", 1000),
			Lookahead:     env.Bool("QUERY_LOOKAHEAD", false),
			CompareOffset: env.Bool("QUERY_COMPARE_OFFSET", false),
			CompareRaw:    env.Bool("QUERY_COMPARE_RAW", false),
		},
		Update: UpdateConfig{
			WalletType: env.String("UPDATE_WALLET_TYPE", "api"),
			Balance:    env.String("UPDATE_BALANCE", "100.000000"),
		},
		Checkpoint: CheckpointConfig{
			RedisAddr:     env.String("CHECKPOINT_REDIS_ADDR", ""),
			RedisPassword: env.String("CHECKPOINT_REDIS_PASSWORD", ""),
			RedisDB:       env.Int("CHECKPOINT_REDIS_DB", 0),
			Key:           env.String("CHECKPOINT_KEY", "addrscan:cursor"),
			TTL:           env.Duration("CHECKPOINT_TTL", 0),
		},
		Metrics: MetricsConfig{
			File: env.String("METRICS_FILE", ""),
		},
	}

	if err := env.Err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Dialect {
	case DialectSQLite, DialectMySQL, DialectPostgres:
	default:
		return fmt.Errorf("DB_DIALECT %q is not one of sqlite, mysql, postgres", c.DB.Dialect)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Seed.Total < 0 {
		return fmt.Errorf("SEED_TOTAL must not be negative, got %d", c.Seed.Total)
	}
	if c.Seed.BatchSize <= 0 {
		return fmt.Errorf("SEED_BATCH_SIZE must be positive, got %d", c.Seed.BatchSize)
	}
	if c.Seed.IDWidth < 0 {
		return fmt.Errorf("SEED_ID_WIDTH must not be negative, got %d", c.Seed.IDWidth)
	}
	if c.Seed.AddressesPerWallet <= 0 {
		return fmt.Errorf("SEED_ADDRESSES_PER_WALLET must be positive, got %d", c.Seed.AddressesPerWallet)
	}
	if c.Query.WalletType == "" {
		return fmt.Errorf("QUERY_WALLET_TYPE is required")
	}
	if c.Query.PageSize <= 0 {
		return fmt.Errorf("QUERY_PAGE_SIZE must be positive, got %d", c.Query.PageSize)
	}
	if c.Update.WalletType == "" {
		return fmt.Errorf("UPDATE_WALLET_TYPE is required")
	}
	if c.Checkpoint.Key == "" {
		return fmt.Errorf("CHECKPOINT_KEY is required")
	}

	return nil
}

// envReader reads typed environment values and keeps every parse error.
type envReader struct {
	errs []error
}

func (r *envReader) String(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (r *envReader) Int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return i
}

func (r *envReader) Bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return b
}

func (r *envReader) Duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return d
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

// Err joins the parse errors seen so far, or returns nil.
func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}
