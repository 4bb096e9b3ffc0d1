package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Executor ExecutorConfig
	Storage  StorageConfig
	Webhook  WebhookConfig
	History  HistoryConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// BrowserConfig holds browser driver configuration.
type BrowserConfig struct {
	Install        bool          // download browsers on first use
	DefaultTimeout time.Duration // page-level default for driver operations
}

// ExecutorConfig holds the step retry policy.
type ExecutorConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	SettleDelay time.Duration
}

// StorageConfig holds screenshot storage configuration.
type StorageConfig struct {
	Type            string        // "local" or "s3"
	BaseDir         string        // For local: "screenshots"
	S3Bucket        string        // For S3: bucket name
	S3Region        string        // For S3: AWS region
	S3PresignExpiry time.Duration // Presigned URL expiration
}

// WebhookConfig holds callback delivery configuration.
type WebhookConfig struct {
	Timeout time.Duration
}

// HistoryConfig holds run history configuration.
type HistoryConfig struct {
	Enabled      bool
	Driver       string // "sqlite" or "mysql"
	DSN          string // sqlite database file
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("browser.install", false)
	v.SetDefault("browser.default_timeout", "10s")

	v.SetDefault("executor.max_retries", 2)
	v.SetDefault("executor.retry_delay", "2s")
	v.SetDefault("executor.settle_delay", "1s")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "screenshots")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("webhook.timeout", "10s")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "bridge.db")
	v.SetDefault("history.host", "localhost")
	v.SetDefault("history.port", 3306)
	v.SetDefault("history.user", "root")
	v.SetDefault("history.password", "password")
	v.SetDefault("history.database", "browser_bridge")
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 5)
	v.SetDefault("history.auto_migrate", true)

	v.SetDefault("log.level", "info")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	// Parse configuration
	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	config.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")

	config.Browser.Install = v.GetBool("browser.install")
	config.Browser.DefaultTimeout = v.GetDuration("browser.default_timeout")

	config.Executor.MaxRetries = v.GetInt("executor.max_retries")
	config.Executor.RetryDelay = v.GetDuration("executor.retry_delay")
	config.Executor.SettleDelay = v.GetDuration("executor.settle_delay")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Webhook.Timeout = v.GetDuration("webhook.timeout")

	config.History.Enabled = v.GetBool("history.enabled")
	config.History.Driver = v.GetString("history.driver")
	config.History.DSN = v.GetString("history.dsn")
	config.History.Host = v.GetString("history.host")
	config.History.Port = v.GetInt("history.port")
	config.History.User = v.GetString("history.user")
	config.History.Password = v.GetString("history.password")
	config.History.Database = v.GetString("history.database")
	config.History.MaxOpenConns = v.GetInt("history.max_open_conns")
	config.History.MaxIdleConns = v.GetInt("history.max_idle_conns")
	config.History.AutoMigrate = v.GetBool("history.auto_migrate")

	config.Log.Level = v.GetString("log.level")

	if config.Executor.MaxRetries < 0 {
		return nil, fmt.Errorf("executor.max_retries must not be negative")
	}

	return &config, nil
}
