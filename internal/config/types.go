package config

import "time"

// LoggerConfig controls the console and file log sinks.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
	Dir   string `mapstructure:"dir"   validate:"required"`
}

// SMTPConfig describes the outbound mail submission endpoint.
type SMTPConfig struct {
	Host               string        `mapstructure:"host"                 validate:"required,hostname|ip"`
	Port               int           `mapstructure:"port"                 validate:"min=1,max=65535"`
	Timeout            time.Duration `mapstructure:"timeout"              validate:"min=1s,max=10m"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// BotConfig holds Telegram intake settings.
type BotConfig struct {
	Workers         int           `mapstructure:"workers"          validate:"min=1,max=64"`
	MaxMessageAge   time.Duration `mapstructure:"max_message_age"  validate:"min=1s"`
	AttachmentDir   string        `mapstructure:"attachment_dir"   validate:"required"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" validate:"min=1s,max=10m"`
}

// MessagesConfig holds every reply text the bot sends back to the operator.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"         validate:"required"`
	NotAuthorized  string `mapstructure:"not_authorized"  validate:"required"`
	NoContent      string `mapstructure:"no_content"      validate:"required"`
	PartialContent string `mapstructure:"partial_content" validate:"required"`
	// Sent is a format string receiving the recipient list.
	Sent       string `mapstructure:"sent"        validate:"required"`
	SendFailed string `mapstructure:"send_failed" validate:"required"`
}

// CommandsConfig holds command descriptions published to Telegram.
type CommandsConfig struct {
	Start string `mapstructure:"start"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
