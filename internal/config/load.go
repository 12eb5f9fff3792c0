package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file and use the DOWNBEAT_ prefix
// with underscores for nesting (e.g. DOWNBEAT_TASK_WORKER_COUNT).
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DOWNBEAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Keys without meaningful defaults still need to be registered so
	// AutomaticEnv can see them during Unmarshal.
	v.SetDefault("database.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("notify.bot_token", "")
	v.SetDefault("notify.rescan.url", "")
	v.SetDefault("notify.rescan.username", "")
	v.SetDefault("notify.rescan.password", "")
	v.SetDefault("notify.rescan.salt", "")
	v.SetDefault("music.api_url", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.max_attempts", 3)
	v.SetDefault("task.retry_delay", time.Second)
	v.SetDefault("task.result_ttl", time.Hour)
	v.SetDefault("task.stuck_task_age", 30*time.Minute)
	v.SetDefault("task.stuck_task_check_interval", 5*time.Minute)
	v.SetDefault("task.id_prefix", "tasker:broker")

	v.SetDefault("notify.delivery_attempts", 1)

	v.SetDefault("media_group.latency", 100*time.Millisecond)
	v.SetDefault("media_group.ttl", 200*time.Millisecond)
}
