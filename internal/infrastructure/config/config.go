package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/fitdesk/accessgate/internal/shared/config"
)

const envPrefix = "ACCESSGATE"

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Provider  sharedConfig.ProviderConfig  `mapstructure:"provider" yaml:"provider"`
	Ingestion sharedConfig.IngestionConfig `mapstructure:"ingestion" yaml:"ingestion"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Telemetry sharedConfig.TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath) and ACCESSGATE_* environment overrides.
// A missing config file is not an error; defaults and environment still apply.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Get returns the last loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "accessgate")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("provider.request_timeout", "15s")
	v.SetDefault("provider.token_skew", "60s")
	v.SetDefault("provider.token_retry_attempts", 3)
	v.SetDefault("provider.token_retry_base", "500ms")
	v.SetDefault("provider.device_page_size", 100)

	v.SetDefault("ingestion.poll_interval", "30s")
	v.SetDefault("ingestion.batch_size", 50)
	v.SetDefault("ingestion.auto_start", true)
	v.SetDefault("ingestion.webhook_queue_size", 256)
	v.SetDefault("ingestion.webhook_workers", 4)
	v.SetDefault("ingestion.webhook_rate_limit", 600)
	v.SetDefault("ingestion.webhook_rate_window", "1m")
	v.SetDefault("ingestion.claim_ttl", "2m")
	v.SetDefault("ingestion.done_ttl", "72h")

	v.SetDefault("scheduler.device_sync_interval", "15m")

	v.SetDefault("telemetry.service_name", "accessgate")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
}
