package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Mode     string `mapstructure:"mode" yaml:"mode"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite"; sqlite uses Database as the file path.
	Driver          string `mapstructure:"driver" yaml:"driver"`
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`
	Database        string `mapstructure:"database" yaml:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProviderConfig tunes outbound calls to the access-control cloud API.
type ProviderConfig struct {
	RequestTimeout     time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	TokenSkew          time.Duration `mapstructure:"token_skew" yaml:"token_skew"`
	TokenRetryAttempts uint          `mapstructure:"token_retry_attempts" yaml:"token_retry_attempts"`
	TokenRetryBase     time.Duration `mapstructure:"token_retry_base" yaml:"token_retry_base"`
	DevicePageSize     int           `mapstructure:"device_page_size" yaml:"device_page_size"`
}

type IngestionConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	BatchSize        int           `mapstructure:"batch_size" yaml:"batch_size"`
	AutoStart        bool          `mapstructure:"auto_start" yaml:"auto_start"`
	WebhookQueueSize int           `mapstructure:"webhook_queue_size" yaml:"webhook_queue_size"`
	WebhookWorkers   int           `mapstructure:"webhook_workers" yaml:"webhook_workers"`
	ClaimTTL         time.Duration `mapstructure:"claim_ttl" yaml:"claim_ttl"`
	DoneTTL          time.Duration `mapstructure:"done_ttl" yaml:"done_ttl"`

	// WebhookRateLimit caps pushes per branch per WebhookRateWindow; 0 disables the limit.
	WebhookRateLimit  int           `mapstructure:"webhook_rate_limit" yaml:"webhook_rate_limit"`
	WebhookRateWindow time.Duration `mapstructure:"webhook_rate_window" yaml:"webhook_rate_window"`
}

type SchedulerConfig struct {
	DeviceSyncInterval time.Duration `mapstructure:"device_sync_interval" yaml:"device_sync_interval"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name" yaml:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure" yaml:"insecure"`
}
