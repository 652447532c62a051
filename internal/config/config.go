package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `yaml:"app"`
	Logging       LoggingConfig       `yaml:"logging"`
	Server        ServerConfig        `yaml:"server"`
	Discord       DiscordConfig       `yaml:"discord"`
	ElevateAI     ElevateAIConfig     `yaml:"elevateai"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Database      DatabaseConfig      `yaml:"database"`
	RabbitMQ      RabbitMQConfig      `yaml:"rabbitmq"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment" env:"APP_ENV"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level" env:"LOG_LEVEL"`
	Format       string `yaml:"format" env:"LOG_FORMAT"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AdminToken      string        `yaml:"admin_token" env:"API_ADMIN_TOKEN"`
}

// DiscordConfig holds the chat bot connection settings
type DiscordConfig struct {
	Token string `yaml:"token" env:"DISCORD_BOT_TOKEN"`
	// GuildID registers commands in one guild only; empty registers them globally.
	GuildID                  string `yaml:"guild_id" env:"DISCORD_GUILD_ID"`
	RemoveCommandsOnShutdown bool   `yaml:"remove_commands_on_shutdown"`
}

// ElevateAIConfig holds the remote transcription service settings
type ElevateAIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token" env:"ELEVATEAI_API_TOKEN"`
	Timeout time.Duration `yaml:"timeout"`
}

// TranscriptionConfig holds job lifecycle settings
type TranscriptionConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	AttachmentTimeout time.Duration `yaml:"attachment_timeout"`
	SlowWarningAfter  time.Duration `yaml:"slow_warning_after"`
	// MaxPollFailures of 0 uses the default; a negative value never abandons.
	MaxPollFailures    int      `yaml:"max_poll_failures"`
	DefaultLanguage    string   `yaml:"default_language"`
	Languages          []string `yaml:"languages"`
	UseAttachmentLinks bool     `yaml:"use_attachment_links" env:"USE_ATTACHMENT_LINKS"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host" env:"DATABASE_HOST"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password" env:"DATABASE_PASSWORD"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host" env:"RABBITMQ_HOST"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password" env:"RABBITMQ_PASSWORD"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig declares an optional queue bound to the exchange
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	BindingKey string `yaml:"binding_key"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Load reads the configuration file, applies environment overrides, then
// fills unset values with defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	config.ApplyDefaults()
	return &config, nil
}

// ApplyDefaults fills zero values with their defaults
func (c *Config) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "transcribe-bot"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.ElevateAI.BaseURL == "" {
		c.ElevateAI.BaseURL = "https://api.elevateai.com/v1"
	}
	if c.ElevateAI.Timeout == 0 {
		c.ElevateAI.Timeout = 60 * time.Second
	}

	t := &c.Transcription
	if t.PollInterval == 0 {
		t.PollInterval = 30 * time.Second
	}
	if t.AttachmentTimeout == 0 {
		t.AttachmentTimeout = 360 * time.Second
	}
	if t.MaxPollFailures == 0 {
		t.MaxPollFailures = 10
	}
	if len(t.Languages) == 0 {
		t.Languages = []string{"en-us", "en", "es-419", "pt-br"}
	}
	for i, lang := range t.Languages {
		t.Languages[i] = strings.ToLower(strings.TrimSpace(lang))
	}
	if t.DefaultLanguage == "" {
		t.DefaultLanguage = t.Languages[0]
	}
	t.DefaultLanguage = strings.ToLower(t.DefaultLanguage)

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}

	if c.RabbitMQ.VHost == "" {
		c.RabbitMQ.VHost = "/"
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "topic"
	}
	if c.RabbitMQ.Connection.RetryAttempts == 0 {
		c.RabbitMQ.Connection.RetryAttempts = 5
	}
	if c.RabbitMQ.Connection.RetryInterval == 0 {
		c.RabbitMQ.Connection.RetryInterval = 5 * time.Second
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is required (set DISCORD_BOT_TOKEN)")
	}

	if c.ElevateAI.Token == "" {
		return fmt.Errorf("elevateai token is required (set ELEVATEAI_API_TOKEN)")
	}

	if !strings.HasPrefix(c.ElevateAI.BaseURL, "http://") && !strings.HasPrefix(c.ElevateAI.BaseURL, "https://") {
		return fmt.Errorf("invalid elevateai base_url: %q", c.ElevateAI.BaseURL)
	}

	if err := c.validateTranscription(); err != nil {
		return err
	}

	if c.Server.Enabled {
		if c.Server.Port < MinPort || c.Server.Port > MaxPort {
			return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
		}
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}
		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required")
		}
	}

	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription

	if t.PollInterval <= 0 {
		return fmt.Errorf("transcription poll_interval must be greater than 0")
	}

	if t.AttachmentTimeout <= 0 {
		return fmt.Errorf("transcription attachment_timeout must be greater than 0")
	}

	if t.SlowWarningAfter < 0 {
		return fmt.Errorf("transcription slow_warning_after must not be negative")
	}

	found := false
	for _, lang := range t.Languages {
		if lang == "" {
			return fmt.Errorf("transcription languages must not contain empty entries")
		}
		if lang == t.DefaultLanguage {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("transcription default_language %q is not in languages", t.DefaultLanguage)
	}

	return nil
}
