package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Cache    CacheConfig
	Locker   LockerConfig
	Worker   WorkerConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port           int     `mapstructure:"port" envconfig:"SERVER_PORT"`
	TimeoutSeconds int     `mapstructure:"timeoutSeconds" envconfig:"SERVER_TIMEOUT_SECONDS"`
	RateLimitRPS   float64 `mapstructure:"rateLimitRps" envconfig:"SERVER_RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"rateLimitBurst" envconfig:"SERVER_RATE_LIMIT_BURST"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DATABASE_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DATABASE_PORT"`
	User     string `mapstructure:"user" envconfig:"DATABASE_USER"`
	Password string `mapstructure:"password" envconfig:"DATABASE_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DATABASE_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DATABASE_SSLMODE"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int    `mapstructure:"maxRetries" envconfig:"REDIS_MAX_RETRIES"`
	PoolSize     int    `mapstructure:"poolSize" envconfig:"REDIS_POOL_SIZE"`
	MinIdleConns int    `mapstructure:"minIdleConns" envconfig:"REDIS_MIN_IDLE_CONNS"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
}

type CacheConfig struct {
	TTLMinutes     int `mapstructure:"ttlMinutes" envconfig:"CACHE_TTL_MINUTES"`
	CleanupMinutes int `mapstructure:"cleanupMinutes" envconfig:"CACHE_CLEANUP_MINUTES"`
}

type LockerConfig struct {
	TTLSeconds int `mapstructure:"ttlSeconds" envconfig:"LOCKER_TTL_SECONDS"`
}

type WorkerConfig struct {
	Port              int `mapstructure:"port" envconfig:"WORKER_PORT"`
	MaxRetries        int `mapstructure:"maxRetries" envconfig:"WORKER_MAX_RETRIES"`
	RetryDelaySeconds int `mapstructure:"retryDelaySeconds" envconfig:"WORKER_RETRY_DELAY_SECONDS"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" envconfig:"METRICS_NAMESPACE"`
}

// LoadConfig reads config.yaml, then applies AGENDA_-prefixed environment
// overrides so deployments can tweak any field without touching the file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("agenda", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("server.rateLimitRps", 100)
	viper.SetDefault("server.rateLimitBurst", 200)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.maxRetries", 3)
	viper.SetDefault("redis.poolSize", 10)
	viper.SetDefault("redis.minIdleConns", 2)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("cache.ttlMinutes", 5)
	viper.SetDefault("cache.cleanupMinutes", 15)
	viper.SetDefault("locker.ttlSeconds", 10)
	viper.SetDefault("worker.port", 8081)
	viper.SetDefault("worker.maxRetries", 3)
	viper.SetDefault("worker.retryDelaySeconds", 5)
	viper.SetDefault("metrics.namespace", "agenda")
}
