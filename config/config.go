package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Sources   SourcesConfig
	Cache     CacheConfig
	Share     ShareConfig
	Data      DataConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SourcesConfig holds credentials and endpoints for the external food-data
// providers. A provider with no credentials is skipped, not an error.
type SourcesConfig struct {
	FDCAPIKey          string `mapstructure:"fdc_api_key"`
	FDCBaseURL         string `mapstructure:"fdc_base_url"`
	NutritionixAppID   string `mapstructure:"nutritionix_app_id"`
	NutritionixAppKey  string `mapstructure:"nutritionix_app_key"`
	NutritionixBaseURL string `mapstructure:"nutritionix_base_url"`
	OFFBaseURL         string `mapstructure:"off_base_url"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ShareConfig holds the share-link settings: the token signing secret, link
// lifetime, and where the PDFs and access logs live.
type ShareConfig struct {
	Secret   string        `mapstructure:"secret"`
	TTL      time.Duration `mapstructure:"ttl"`
	BaseURL  string        `mapstructure:"base_url"`
	Storage  string        `mapstructure:"storage"` // "memory", "filesystem" or "s3"
	Dir      string        `mapstructure:"dir"`
	AuditDir string        `mapstructure:"audit_dir"`
	S3Bucket string        `mapstructure:"s3_bucket"`
	S3Prefix string        `mapstructure:"s3_prefix"`
	S3Region string        `mapstructure:"s3_region"`
}

// DataConfig points at the reference data directory.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutriweek/")

	// Environment variable settings
	v.SetEnvPrefix("NUTRIWEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory into the process
// environment. Missing files are fine; existing environment variables win.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		os.Setenv(key, strings.TrimSpace(value))
	}
	return scanner.Err()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Source defaults
	v.SetDefault("sources.fdc_base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("sources.nutritionix_base_url", "https://trackapi.nutritionix.com")
	v.SetDefault("sources.off_base_url", "https://world.openfoodfacts.org")

	// Cache defaults
	v.SetDefault("cache.ttl", "15m")

	// Share defaults
	v.SetDefault("share.ttl", "168h") // 7 days
	v.SetDefault("share.base_url", "http://localhost:8080")
	v.SetDefault("share.storage", "filesystem")
	v.SetDefault("share.dir", "./var/shares")
	v.SetDefault("share.audit_dir", "./var/audit")

	// Data defaults
	v.SetDefault("data.dir", "./data")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Share.Secret == "" {
		return fmt.Errorf("share secret is required (set NUTRIWEEK_SHARE_SECRET)")
	}

	switch config.Share.Storage {
	case "memory":
	case "filesystem":
		if config.Share.Dir == "" {
			return fmt.Errorf("share dir is required when share storage is 'filesystem'")
		}
	case "s3":
		if config.Share.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when share storage is 's3'")
		}
	default:
		return fmt.Errorf("share storage must be 'memory', 'filesystem' or 's3', got: %s", config.Share.Storage)
	}

	if config.Share.TTL <= 0 {
		return fmt.Errorf("share TTL must be positive, got: %s", config.Share.TTL)
	}

	if config.Data.Dir == "" {
		return fmt.Errorf("data dir is required")
	}

	return nil
}
