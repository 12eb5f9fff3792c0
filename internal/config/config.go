package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"      validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"    validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"       validate:"required"`
	Task       TaskConfig       `mapstructure:"task"        validate:"required"`
	Notify     NotifyConfig     `mapstructure:"notify"      validate:"required"`
	Music      MusicConfig      `mapstructure:"music"       validate:"required"`
	MediaGroup MediaGroupConfig `mapstructure:"media_group" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the durable task store settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig contains the result backend connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// TaskConfig tunes the task pipeline: worker pool size, queue capacity,
// retry budget and backoff, and result retention.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`

	// MaxAttempts bounds the retry budget per task. The total bound is
	// attempt count, not wall-clock time.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// RetryDelay is the inter-attempt delay. Must be non-zero.
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"required,gt=0"`

	// ResultTTL is how long terminal results stay retrievable.
	ResultTTL time.Duration `mapstructure:"result_ttl" validate:"required,gt=0"`

	// StuckTaskAge defines how long a task can be in processing state
	// before it is considered stuck and reset.
	StuckTaskAge time.Duration `mapstructure:"stuck_task_age" validate:"required,gt=0"`

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	StuckTaskCheckInterval time.Duration `mapstructure:"stuck_task_check_interval" validate:"required,gt=0"`

	// IDPrefix prefixes allocated task IDs (e.g. "tasker:broker").
	IDPrefix string `mapstructure:"id_prefix" validate:"required"`
}

// NotifyConfig contains outbound notification settings.
type NotifyConfig struct {
	// BotToken authenticates the Telegram sender.
	BotToken string `mapstructure:"bot_token" validate:"required"`

	// DeliveryAttempts controls whether a failed notification delivery is
	// itself retried. 1 means fire-and-forget, matching the upstream bot.
	DeliveryAttempts int `mapstructure:"delivery_attempts" validate:"required,gt=0"`

	Rescan RescanConfig `mapstructure:"rescan"`
}

// RescanConfig configures the optional media-library rescan signal fired
// after a successful notification. Disabled when URL is empty.
type RescanConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Salt     string `mapstructure:"salt"`
}

// MusicConfig points at the external download service.
type MusicConfig struct {
	APIURL string `mapstructure:"api_url" validate:"required"`
}

// MediaGroupConfig tunes the inbound media-group coalescer.
type MediaGroupConfig struct {
	// Latency is the debounce window after the first event of a group.
	Latency time.Duration `mapstructure:"latency" validate:"required,gt=0"`

	// TTL is how long a closed group key stays in the cache; a new event
	// with the same key afterward starts a fresh group.
	TTL time.Duration `mapstructure:"ttl" validate:"required,gt=0"`
}
