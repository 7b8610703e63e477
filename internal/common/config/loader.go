// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	commonerrors "ticket-triage/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like BEDROCK_REGION
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so the CLI works from any
// directory inside the repo.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Bedrock.Region == "" {
		if val := os.Getenv("BEDROCK_REGION"); val != "" {
			cfg.Bedrock.Region = val
		}
	}
	if cfg.Bedrock.EndpointURL == "" {
		if val := os.Getenv("BEDROCK_ENDPOINT_URL"); val != "" {
			cfg.Bedrock.EndpointURL = val
		}
	}
	if cfg.Bedrock.ModelID == "" {
		if val := os.Getenv("BEDROCK_MODEL_ID"); val != "" {
			cfg.Bedrock.ModelID = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Bedrock defaults: greedy decoding with
	// the full probability mass and a bounded completion length.
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "amazon.titan-text-premier-v1:0"
	}
	if cfg.Bedrock.Timeout == 0 {
		cfg.Bedrock.Timeout = 60000
	}
	if cfg.Bedrock.Generation.TopP == 0 {
		cfg.Bedrock.Generation.TopP = 1.0
	}
	if cfg.Bedrock.Generation.MaxTokenCount == 0 {
		cfg.Bedrock.Generation.MaxTokenCount = 1000
	}

	// Dataset defaults
	if cfg.Dataset.IDColumn == "" {
		cfg.Dataset.IDColumn = "support_tick_id"
	}
	if cfg.Dataset.TextColumn == "" {
		cfg.Dataset.TextColumn = "support_ticket_text"
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Feature defaults
	if cfg.Archive.Table == "" {
		cfg.Archive.Table = "ticket_reports"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 86400000 // deterministic decoding keeps completions valid for a day
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = "ticket-reports"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields before any
// inference call is attempted.
func validateConfig(cfg *Config) error {
	if cfg.Bedrock.Region == "" {
		return commonerrors.NewConfigInvalidError("bedrock.region is required")
	}
	if cfg.Bedrock.ModelID == "" {
		return commonerrors.NewConfigInvalidError("bedrock.model_id is required")
	}
	if cfg.Bedrock.Generation.Temperature < 0 || cfg.Bedrock.Generation.Temperature > 1 {
		return commonerrors.NewConfigInvalidError("bedrock.generation.temperature must be in [0, 1]")
	}
	if cfg.Bedrock.Generation.TopP <= 0 || cfg.Bedrock.Generation.TopP > 1 {
		return commonerrors.NewConfigInvalidError("bedrock.generation.top_p must be in (0, 1]")
	}

	if cfg.Archive.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return commonerrors.NewConfigInvalidError("database.postgres.host is required when archive is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return commonerrors.NewConfigInvalidError("database.postgres.database is required when archive is enabled")
		}
		if cfg.Database.Postgres.User == "" {
			return commonerrors.NewConfigInvalidError("database.postgres.user is required when archive is enabled")
		}
	}

	if cfg.Cache.Enabled && cfg.Database.Redis.Address == "" {
		return commonerrors.NewConfigInvalidError("database.redis.address is required when cache is enabled")
	}

	if cfg.Index.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return commonerrors.NewConfigInvalidError("database.elasticsearch.addresses or url is required when index is enabled")
	}

	if cfg.Notifications.Email.Enabled {
		if cfg.Notifications.Email.FromEmail == "" {
			return commonerrors.NewConfigInvalidError("notifications.email.from_email is required when email is enabled")
		}
		if cfg.Notifications.AWS.Region == "" {
			cfg.Notifications.AWS.Region = cfg.Bedrock.Region
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
