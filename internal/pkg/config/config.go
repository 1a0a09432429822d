package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BaseURL is the externally visible origin, used for payment redirect
	// and password-reset URLs.
	BaseURL     string   `env:"BASE_URL,     default=http://localhost:8080"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
	StaticDir   string   `env:"STATIC_DIR,   default=public"`
	BodyLimit   string   `env:"BODY_LIMIT,   default=10K"`

	JWT    JWTConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Limit  RateLimitConfig
	Stripe StripeConfig
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET"`
	// TokenTTL bounds credential validity; CookieTTL must match or exceed it.
	TokenTTL  time.Duration `env:"JWT_EXPIRATION,        default=24h"`
	CookieTTL time.Duration `env:"JWT_COOKIE_EXPIRATION, default=24h"`
}

type MongoConfig struct {
	// URI may contain a <PASSWORD> placeholder substituted with Password.
	URI      string `env:"MONGO_URI,      default=mongodb://localhost:27017"`
	Password string `env:"MONGO_PASSWORD"`
	Database string `env:"MONGO_DB,       default=natours"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RateLimitConfig struct {
	Max     int64         `env:"RATE_LIMIT_MAX,     default=100"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW,  default=1h"`
	Message string        `env:"RATE_LIMIT_MESSAGE, default=Too many requests from this IP, please try again in an hour."`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// IsProduction reports the production posture used by error rendering and
// cookie security flags.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// MongoURI returns the connection URI with the credential placeholder
// substituted.
func (c *Config) MongoURI() string {
	return strings.Replace(c.Mongo.URI, "<PASSWORD>", c.Mongo.Password, 1)
}
