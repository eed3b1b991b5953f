package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Export   ExportConfig   `mapstructure:"export"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// APIConfig points at the study-assistant backend. There is no request
// timeout; polling owns the time budget.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout"`
}

type UploadConfig struct {
	MaxFileSize     int64    `mapstructure:"max_file_size"`
	AllowedTypes    []string `mapstructure:"allowed_types"`
	PromptMinLength int      `mapstructure:"prompt_min_length"`
	PromptMaxLength int      `mapstructure:"prompt_max_length"`
	UnsafePatterns  []string `mapstructure:"unsafe_patterns"`
	ProcessType     string   `mapstructure:"process_type"`
}

type PollingConfig struct {
	Interval               time.Duration `mapstructure:"interval"`
	MaxAttempts            int           `mapstructure:"max_attempts"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures"`
}

type QuizConfig struct {
	DefaultCount int `mapstructure:"default_count"`
	MaxCount     int `mapstructure:"max_count"`
	MaxTopics    int `mapstructure:"max_topics"`
}

type ChatConfig struct {
	MaxMessageLength int           `mapstructure:"max_message_length"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	ActiveWindow     time.Duration `mapstructure:"active_window"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig enables the PostgreSQL export history when Host is set.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// StorageConfig enables the MinIO export archive when Endpoint is set.
type StorageConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	Bucket         string        `mapstructure:"bucket"`
	Region         string        `mapstructure:"region"`
	UseSSL         bool          `mapstructure:"use_ssl"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// RabbitMQConfig enables document status events when URL is set.
type RabbitMQConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Pretty  bool   `mapstructure:"pretty"`
	NoColor bool   `mapstructure:"no_color"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

func Load() (*Config, error) {
	return LoadFrom("./config", ".")
}

// LoadFrom reads config.yaml from the first matching path, then applies
// environment overrides (server.address -> SERVER_ADDRESS). A .env file in
// the working directory is loaded first when present.
func LoadFrom(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// QuizCountLimit caps the number of questions a generated quiz may ask for.
const QuizCountLimit = 20

func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.Polling.Interval <= 0 {
		return errors.New("polling.interval must be positive")
	}
	if c.Polling.MaxAttempts < 1 {
		return errors.New("polling.max_attempts must be at least 1")
	}
	if c.Polling.MaxConsecutiveFailures < 1 {
		return errors.New("polling.max_consecutive_failures must be at least 1")
	}
	if c.Upload.PromptMinLength > c.Upload.PromptMaxLength {
		return fmt.Errorf("upload.prompt_min_length (%d) exceeds upload.prompt_max_length (%d)",
			c.Upload.PromptMinLength, c.Upload.PromptMaxLength)
	}
	if c.Quiz.MaxCount < 1 || c.Quiz.MaxCount > QuizCountLimit {
		return fmt.Errorf("quiz.max_count must be between 1 and %d", QuizCountLimit)
	}
	if c.Quiz.DefaultCount < 1 || c.Quiz.DefaultCount > c.Quiz.MaxCount {
		return fmt.Errorf("quiz.default_count must be between 1 and %d", c.Quiz.MaxCount)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:5001/api")
	v.SetDefault("api.max_idle_conns", 100)
	v.SetDefault("api.idle_conn_timeout", "90s")

	v.SetDefault("upload.max_file_size", 10*1024*1024)
	v.SetDefault("upload.allowed_types", []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
		"image/gif",
		"image/bmp",
		"image/tiff",
	})
	v.SetDefault("upload.prompt_min_length", 10)
	v.SetDefault("upload.prompt_max_length", 1000)
	v.SetDefault("upload.unsafe_patterns", []string{
		`(?i)<script`,
		`(?i)javascript:`,
		`(?i)data:text/html`,
		`(?i)onclick`,
		`(?i)onerror`,
		`(?i)onload`,
		`(?i)onmouseover`,
	})
	v.SetDefault("upload.process_type", "analysis")

	v.SetDefault("polling.interval", "2s")
	v.SetDefault("polling.max_attempts", 60)
	v.SetDefault("polling.max_consecutive_failures", 3)

	v.SetDefault("quiz.default_count", 5)
	v.SetDefault("quiz.max_count", 20)
	v.SetDefault("quiz.max_topics", 10)

	v.SetDefault("chat.max_message_length", 1000)
	v.SetDefault("chat.history_limit", 50)
	v.SetDefault("chat.active_window", "24h")

	v.SetDefault("export.directory", "./exports")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "study_user")
	v.SetDefault("database.password", "study_password")
	v.SetDefault("database.name", "study_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "file://migrations")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.bucket", "study-exports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.connect_timeout", "30s")

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "study_helper_exchange")
	v.SetDefault("rabbitmq.routing_key", "document.status")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", true)
	v.SetDefault("logging.no_color", false)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 300)
}
