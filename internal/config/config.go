package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const configPathEnv = "BLEUMIPAY_CONFIG_PATH"

type BleumiConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	ReconDB      `yaml:"recon_db"`
	LogConfig    `yaml:"log_config"`
	BleumiPay    `yaml:"bleumipay"`
	Cron         `yaml:"cron"`
	KafkaService `yaml:"kafka_service"`
	Redis        `yaml:"redis"`
	Tracing      `yaml:"tracing"`
	Notifier     `yaml:"notifier"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type ReconDB struct {
	// Driver is postgres or mysql.
	Driver         string `yaml:"driver" env:"RECON_DB_DRIVER" env-default:"postgres"`
	Dsn            string `yaml:"dsn" env:"RECON_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"RECON_DB_MIGRATIONS_PATH" env-default:"migrations"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"RECON_DB_AUTO_MIGRATE" env-default:"false"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type BleumiPay struct {
	BaseURL        string        `yaml:"base_url" env:"BLEUMIPAY_BASE_URL" env-default:"https://api.bleumi.io/v1"`
	APIKey         string        `yaml:"api_key" env:"BLEUMIPAY_API_KEY"`
	Timeout        time.Duration `yaml:"timeout" env:"BLEUMIPAY_TIMEOUT" env-default:"30s"`
	TokenCacheSize int           `yaml:"token_cache_size" env-default:"16"`
	TokenCacheTTL  time.Duration `yaml:"token_cache_ttl" env-default:"10m"`
}

type Cron struct {
	SchedulerEnabled    bool          `yaml:"scheduler_enabled" env:"CRON_SCHEDULER_ENABLED" env-default:"false"`
	OrdersInterval      time.Duration `yaml:"orders_interval" env-default:"5m"`
	PaymentsInterval    time.Duration `yaml:"payments_interval" env-default:"5m"`
	RetryInterval       time.Duration `yaml:"retry_interval" env-default:"15m"`
	CollisionSafeWindow time.Duration `yaml:"collision_safe_window" env-default:"10m"`
	AwaitPaymentTimeout time.Duration `yaml:"await_payment_timeout" env-default:"24h"`
	RateLimitDelay      time.Duration `yaml:"rate_limit_delay" env-default:"300ms"`
	MaxRetryCount       int           `yaml:"max_retry_count" env-default:"3"`
}

type KafkaService struct {
	Enabled bool   `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"reconciliation-events"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env-default:"10m"`
}

// Notifier posts selected reconciliation events to a merchant callback URL.
// An empty EventTypes list means settled, refunded, multitoken and hard errors.
type Notifier struct {
	Enabled     bool          `yaml:"enabled" env:"NOTIFIER_ENABLED" env-default:"false"`
	CallbackURL string        `yaml:"callback_url" env:"NOTIFIER_CALLBACK_URL"`
	EventTypes  []string      `yaml:"event_types" env:"NOTIFIER_EVENT_TYPES" env-separator:","`
	Timeout     time.Duration `yaml:"timeout" env:"NOTIFIER_TIMEOUT" env-default:"10s"`
}

type Tracing struct {
	Enabled        bool   `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	JaegerEndpoint string `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT" env-default:"http://localhost:14268/api/traces"`
	ServiceName    string `yaml:"service_name" env-default:"bleumipay-service"`
}

// Load reads the YAML file at path and applies env overrides.
func Load(path string) (*BleumiConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg BleumiConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg.ReconDB.Driver != "postgres" && cfg.ReconDB.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported recon_db driver %q", cfg.ReconDB.Driver)
	}
	if cfg.Cron.MaxRetryCount <= 0 {
		return nil, fmt.Errorf("cron.max_retry_count must be positive")
	}

	return &cfg, nil
}

// MustLoad loads an optional .env file first so local runs can keep the
// config path and secrets out of the shell profile.
func MustLoad() *BleumiConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}
