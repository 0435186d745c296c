package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// devJWTSecret is only accepted when APP_ENV is "development".
const devJWTSecret = "bookstore-development-secret-do-not-use"

type Config struct {
	Env                string        `mapstructure:"APP_ENV"`
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestBodySize int64         `mapstructure:"MAX_REQUEST_BODY_SIZE"`
	MaxUploadSize      int64         `mapstructure:"MAX_UPLOAD_SIZE"`

	MongoURI                    string        `mapstructure:"MONGO_URI"`
	MongoDBName                 string        `mapstructure:"MONGO_DB_NAME"`
	MongoMaxPoolSize            uint64        `mapstructure:"MONGO_MAX_POOL_SIZE"`
	MongoMinPoolSize            uint64        `mapstructure:"MONGO_MIN_POOL_SIZE"`
	MongoConnectTimeout         time.Duration `mapstructure:"MONGO_CONNECT_TIMEOUT"`
	MongoServerSelectionTimeout time.Duration `mapstructure:"MONGO_SERVER_SELECTION_TIMEOUT"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CartCacheTTL  time.Duration `mapstructure:"CART_CACHE_TTL"`

	KafkaBrokers  string `mapstructure:"KAFKA_BROKERS"`
	PurchaseTopic string `mapstructure:"PURCHASE_TOPIC"`
	ConsumerGroup string `mapstructure:"CONSUMER_GROUP"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	BootstrapAdmin string        `mapstructure:"BOOTSTRAP_ADMIN_EMAIL"`
	SecureCookies  bool          `mapstructure:"SECURE_COOKIES"`

	GCSBucket        string        `mapstructure:"GCS_BUCKET"`
	GCSEmulatorHost  string        `mapstructure:"GCS_EMULATOR_HOST"`
	SignedURLTTL     time.Duration `mapstructure:"SIGNED_URL_TTL"`
	StorageFailLimit uint32        `mapstructure:"STORAGE_FAILURE_THRESHOLD"`

	TraceStdout bool `mapstructure:"TRACE_STDOUT"`
}

var defaults = map[string]any{
	"APP_ENV":                        "development",
	"HTTP_PORT":                      "8080",
	"LOG_LEVEL":                      "info",
	"REQUEST_TIMEOUT":                "30s",
	"SHUTDOWN_TIMEOUT":               "10s",
	"MAX_REQUEST_BODY_SIZE":          int64(1 << 20),
	"MAX_UPLOAD_SIZE":                int64(50 << 20),
	"MONGO_URI":                      "mongodb://localhost:27017",
	"MONGO_DB_NAME":                  "bookstore",
	"MONGO_MAX_POOL_SIZE":            100,
	"MONGO_MIN_POOL_SIZE":            10,
	"MONGO_CONNECT_TIMEOUT":          "10s",
	"MONGO_SERVER_SELECTION_TIMEOUT": "5s",
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"CART_CACHE_TTL":                 "15m",
	"KAFKA_BROKERS":                  "localhost:9092",
	"PURCHASE_TOPIC":                 "book-purchased",
	"CONSUMER_GROUP":                 "bookstore-cart-cleanup",
	"JWT_SECRET":                     "",
	"TOKEN_TTL":                      "24h",
	"BOOTSTRAP_ADMIN_EMAIL":          "",
	"SECURE_COOKIES":                 false,
	"GCS_BUCKET":                     "",
	"GCS_EMULATOR_HOST":              "",
	"SIGNED_URL_TTL":                 "1h",
	"STORAGE_FAILURE_THRESHOLD":      5,
	"TRACE_STDOUT":                   false,
}

// Load reads configuration from the environment, optionally layered over the
// file at path (any format viper understands). Environment values win.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.JWTSecret == "" && cfg.Env == "development" {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.MongoURI == "" || c.MongoDBName == "" {
		errs = append(errs, errors.New("MONGO_URI and MONGO_DB_NAME are required"))
	}
	if c.MongoMaxPoolSize == 0 || c.MongoMinPoolSize > c.MongoMaxPoolSize {
		errs = append(errs, errors.New("MONGO_MIN_POOL_SIZE must not exceed a positive MONGO_MAX_POOL_SIZE"))
	}
	if c.MongoConnectTimeout <= 0 || c.MongoServerSelectionTimeout <= 0 {
		errs = append(errs, errors.New("MONGO_CONNECT_TIMEOUT and MONGO_SERVER_SELECTION_TIMEOUT must be positive"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
