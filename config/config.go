package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quipcup/scoring"
)

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	BackendRedis     = "redis"
	BackendNATS      = "nats"
	BackendWebSocket = "websocket"
	BackendNone      = "none"

	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

type Config struct {
	Port        string `yaml:"port"`
	BindAddress string `yaml:"bind_address"`
	Role        string `yaml:"role"`

	AdminPassword string        `yaml:"admin_password"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	CacheDriver string `yaml:"cache_driver"`
	CacheDSN    string `yaml:"cache_dsn"`
	DBHost      string `yaml:"db_host"`
	DBPort      string `yaml:"db_port"`
	DBUser      string `yaml:"db_user"`
	DBPassword  string `yaml:"db_password"`
	DBName      string `yaml:"db_name"`

	SyncBackend   string `yaml:"sync_backend"`
	RedisHost     string `yaml:"redis_host"`
	RedisPort     string `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	NATSURL       string `yaml:"nats_url"`
	NATSBucket    string `yaml:"nats_bucket"`
	UpstreamWSURL string `yaml:"upstream_ws_url"`

	FeedRetryDelay time.Duration `yaml:"feed_retry_delay"`
	FeedHeartbeat  time.Duration `yaml:"feed_heartbeat"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	StrikePenaltyTwo int `yaml:"strike_penalty_two"`
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		BindAddress:      "localhost",
		Role:             RoleAdmin,
		JWTSecret:        "change-me-before-the-tournament",
		TokenTTL:         12 * time.Hour,
		LogLevel:         "info",
		LogFormat:        "json",
		CacheDriver:      CacheSQLite,
		CacheDSN:         "quipcup.db",
		DBHost:           "localhost",
		DBPort:           "5432",
		DBUser:           "quipcup",
		DBName:           "quipcup",
		SyncBackend:      BackendNone,
		RedisHost:        "localhost",
		RedisPort:        "6379",
		NATSURL:          nats.DefaultURL,
		NATSBucket:       "quipcup",
		FeedRetryDelay:   2 * time.Second,
		FeedHeartbeat:    25 * time.Second,
		PollInterval:     time.Second,
		StrikePenaltyTwo: -6,
	}
}

// Load builds the config from defaults, then the YAML file at path (if
// any), then a .env file in the working directory, then the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.BindAddress = getEnv("BIND_ADDRESS", cfg.BindAddress)
	cfg.Role = getEnv("ROLE", cfg.Role)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL, &errs)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.CacheDriver = getEnv("CACHE_DRIVER", cfg.CacheDriver)
	cfg.CacheDSN = getEnv("CACHE_DSN", cfg.CacheDSN)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.SyncBackend = getEnv("SYNC_BACKEND", cfg.SyncBackend)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnv("REDIS_PORT", cfg.RedisPort)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB, &errs)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSBucket = getEnv("NATS_BUCKET", cfg.NATSBucket)
	cfg.UpstreamWSURL = getEnv("UPSTREAM_WS_URL", cfg.UpstreamWSURL)
	cfg.FeedRetryDelay = getEnvDuration("FEED_RETRY_DELAY", cfg.FeedRetryDelay, &errs)
	cfg.FeedHeartbeat = getEnvDuration("FEED_HEARTBEAT", cfg.FeedHeartbeat, &errs)
	cfg.PollInterval = getEnvDuration("POLL_INTERVAL", cfg.PollInterval, &errs)
	cfg.StrikePenaltyTwo = getEnvInt("STRIKE_PENALTY_TWO", cfg.StrikePenaltyTwo, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Role {
	case RoleAdmin, RoleViewer:
	default:
		errs = append(errs, fmt.Errorf("ROLE must be %s or %s, got %q", RoleAdmin, RoleViewer, c.Role))
	}
	switch c.SyncBackend {
	case BackendRedis, BackendNATS, BackendNone:
	case BackendWebSocket:
		if c.UpstreamWSURL == "" && c.Role == RoleViewer {
			errs = append(errs, errors.New("UPSTREAM_WS_URL is required for the websocket backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SYNC_BACKEND %q", c.SyncBackend))
	}
	switch c.CacheDriver {
	case CacheSQLite, CachePostgres, CacheNone:
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.FeedRetryDelay <= 0 || c.PollInterval <= 0 {
		errs = append(errs, errors.New("FEED_RETRY_DELAY and POLL_INTERVAL must be positive"))
	}
	if c.StrikePenaltyTwo > 0 {
		errs = append(errs, errors.New("STRIKE_PENALTY_TWO must not be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return c.BindAddress + ":" + c.Port
}

// Rules returns the scoring rules with the configured two-strike penalty.
func (c *Config) Rules() scoring.Rules {
	r := scoring.DefaultRules()
	r.TwoStrikePenalty = c.StrikePenaltyTwo
	return r
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}

// NewLogger builds the process logger: JSON for production, a colored
// console encoder when LOG_FORMAT is "console".
func NewLogger(cfg *Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	return zc.Build()
}

// InitCache opens the local cache database. It returns nil when the cache
// is disabled.
func InitCache(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.CacheDriver {
	case CacheNone:
		return nil, nil
	case CachePostgres:
		dsn := cfg.CacheDSN
		if dsn == "" || dsn == defaults().CacheDSN {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		}
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.CacheDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}
	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// InitNATS connects to NATS and opens (creating if needed) the document
// bucket. The bucket keeps only the latest value.
func InitNATS(ctx context.Context, cfg *Config) (*nats.Conn, jetstream.KeyValue, error) {
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("quipcup"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  cfg.NATSBucket,
		History: 1,
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open kv bucket %s: %w", cfg.NATSBucket, err)
	}
	return nc, kv, nil
}
