// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Convert  ConvertConfig  `mapstructure:"convert"`
	Export   ExportConfig   `mapstructure:"export"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ConvertConfig holds conversion defaults.
type ConvertConfig struct {
	SwapXY        bool `mapstructure:"swap_xy"`       // Source ordinates are northing/easting
	FallbackSRID  int  `mapstructure:"fallback_srid"` // Used when the source declares no CRS
	PerCodeLayers bool `mapstructure:"per_code_layers"`
	Surfaces      bool `mapstructure:"surfaces"` // Export faces and boundaries
}

// ExportConfig holds container export configuration.
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Timestamp bool   `mapstructure:"timestamp"` // Append a run timestamp to the file stem
}

// WatchConfig holds directory watch configuration.
type WatchConfig struct {
	Dir        string        `mapstructure:"dir"`
	Extensions []string      `mapstructure:"extensions"`
	Debounce   time.Duration `mapstructure:"debounce"`
}

// DeliveryConfig holds object storage delivery configuration.
type DeliveryConfig struct {
	Type      string      `mapstructure:"type"` // none, local, s3, azure
	Prefix    string      `mapstructure:"prefix"`
	LocalPath string      `mapstructure:"local_path"`
	S3        S3Config    `mapstructure:"s3"`
	Azure     AzureConfig `mapstructure:"azure"`
}

// Enabled returns true if delivery to object storage is configured.
func (c *DeliveryConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

// S3Config holds AWS S3 configuration.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string `mapstructure:"container"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	ConnectionString string `mapstructure:"connection_string"`
}

// ServerConfig holds status HTTP server configuration.
type ServerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Convert defaults
	viper.SetDefault("convert.swap_xy", true)
	viper.SetDefault("convert.fallback_srid", 0)
	viper.SetDefault("convert.per_code_layers", false)
	viper.SetDefault("convert.surfaces", true)

	// Export defaults
	viper.SetDefault("export.output_dir", ".")
	viper.SetDefault("export.timestamp", true)

	// Watch defaults
	viper.SetDefault("watch.extensions", []string{".xml", ".landxml"})
	viper.SetDefault("watch.debounce", 2*time.Second)

	// Delivery defaults
	viper.SetDefault("delivery.type", "none")

	// Server defaults
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "mensura")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	// Environment variable binding
	viper.SetEnvPrefix("MENSURA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/mensura")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Enabled {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return fmt.Errorf("invalid server port: %d", c.Server.Port)
		}
	}

	if c.Convert.FallbackSRID < 0 {
		return fmt.Errorf("invalid fallback SRID: %d", c.Convert.FallbackSRID)
	}

	switch c.Delivery.Type {
	case "", "none":
	case "local":
		if c.Delivery.LocalPath == "" {
			return fmt.Errorf("local delivery path is required")
		}
	case "s3":
		if c.Delivery.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required")
		}
		if c.Delivery.S3.Region == "" {
			return fmt.Errorf("S3 region is required")
		}
	case "azure":
		if c.Delivery.Azure.Container == "" {
			return fmt.Errorf("azure container is required")
		}
		if c.Delivery.Azure.AccountName == "" && c.Delivery.Azure.ConnectionString == "" {
			return fmt.Errorf("azure account name or connection string is required")
		}
	default:
		return fmt.Errorf("unknown delivery type: %s", c.Delivery.Type)
	}

	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
