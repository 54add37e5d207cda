// ./internal/config/config.go

package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chandan1819/nosql-mcp-server/internal/globalconst"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvConfigFile        = "NOSQLMCP_CONFIG"
	EnvDotEnvFile        = "NOSQLMCP_ENV_FILE"
	EnvDataPath          = "NOSQLMCP_DATA_PATH"
	EnvBackupDir         = "NOSQLMCP_BACKUP_DIR"
	EnvEnableBackups     = "NOSQLMCP_ENABLE_BACKUPS"
	EnvBackupInterval    = "NOSQLMCP_BACKUP_INTERVAL"
	EnvBackupRetention   = "NOSQLMCP_BACKUP_RETENTION"
	EnvLogLevel          = "NOSQLMCP_LOG_LEVEL"
	EnvLogFormat         = "NOSQLMCP_LOG_FORMAT"
	EnvSeedSampleData    = "NOSQLMCP_SEED_SAMPLE_DATA"
	EnvForceReset        = "NOSQLMCP_FORCE_RESET"
	EnvServerName        = "NOSQLMCP_SERVER_NAME"
	EnvBulkDeleteWarning = "NOSQLMCP_BULK_DELETE_WARNING"
)

// Config holds application-wide configuration.
type Config struct {
	DataPath          string        `yaml:"data_path"`
	BackupDir         string        `yaml:"backup_dir"`
	EnableBackups     bool          `yaml:"enable_backups"`
	BackupInterval    time.Duration `yaml:"backup_interval"`
	BackupRetention   time.Duration `yaml:"backup_retention"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	SeedSampleData    bool          `yaml:"seed_sample_data"`
	ForceReset        bool          `yaml:"force_reset"`
	ServerName        string        `yaml:"server_name"`
	BulkDeleteWarning int           `yaml:"bulk_delete_warning"`
}

// NewDefaultConfig creates a Config struct with sensible default values.
func NewDefaultConfig() Config {
	return Config{
		DataPath:          globalconst.DefaultDataFile,
		BackupDir:         globalconst.BackupsDirName,
		EnableBackups:     true,
		BackupInterval:    1 * time.Hour,
		BackupRetention:   7 * 24 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "text",
		SeedSampleData:    true,
		ForceReset:        false,
		ServerName:        "nosql-mcp-server",
		BulkDeleteWarning: 10,
	}
}

// LoadConfig loads configuration with a clear precedence:
// Environment > .env file > YAML file > Defaults.
func LoadConfig() Config {
	cfg := NewDefaultConfig()
	slog.Info("Loading configuration...")

	if path := os.Getenv(EnvConfigFile); path != "" {
		loadFile(path, &cfg)
	}
	loadDotEnv(envOr(EnvDotEnvFile, ".env"))
	applyEnvConfig(&cfg)
	return cfg
}

// loadFile overlays the YAML file at path onto cfg. A missing or broken file is
// logged and otherwise ignored.
func loadFile(path string, cfg *Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Config file not found, using defaults", "path", path)
			return
		}
		slog.Warn("Error reading config file", "path", path, "error", err)
		return
	}

	// Decode into a copy so a half-parsed file leaves cfg untouched.
	next := *cfg
	if err := yaml.Unmarshal(data, &next); err != nil {
		slog.Warn("Error parsing config file", "path", path, "error", err)
		return
	}
	*cfg = next
	slog.Info("Loaded config file", "path", path)
}

// loadDotEnv exports the variables of a .env file. Variables already set in the
// environment win.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("Error loading .env file", "path", path, "error", err)
		return
	}
	slog.Info("Loaded environment file", "path", path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// applyEnvConfig overrides config values from environment variables.
func applyEnvConfig(cfg *Config) {
	overrideString(EnvDataPath, &cfg.DataPath)
	overrideString(EnvBackupDir, &cfg.BackupDir)
	overrideString(EnvServerName, &cfg.ServerName)

	if levelEnv := os.Getenv(EnvLogLevel); levelEnv != "" {
		switch lvl := strings.ToLower(levelEnv); lvl {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = lvl
			slog.Info("Overriding LogLevel from environment", "value", lvl)
		default:
			slog.Warn("Invalid "+EnvLogLevel+" env var, using default", "value", levelEnv)
		}
	}

	if formatEnv := os.Getenv(EnvLogFormat); formatEnv != "" {
		switch f := strings.ToLower(formatEnv); f {
		case "text", "json":
			cfg.LogFormat = f
			slog.Info("Overriding LogFormat from environment", "value", f)
		default:
			slog.Warn("Invalid "+EnvLogFormat+" env var, using default", "value", formatEnv)
		}
	}

	if warnEnv := os.Getenv(EnvBulkDeleteWarning); warnEnv != "" {
		if i, err := strconv.Atoi(warnEnv); err == nil && i > 0 {
			cfg.BulkDeleteWarning = i
			slog.Info("Overriding BulkDeleteWarning from environment", "value", i)
		} else {
			slog.Warn("Invalid "+EnvBulkDeleteWarning+" env var, using default", "value", warnEnv)
		}
	}

	overrideBool(EnvEnableBackups, &cfg.EnableBackups)
	overrideBool(EnvSeedSampleData, &cfg.SeedSampleData)
	overrideBool(EnvForceReset, &cfg.ForceReset)

	overrideDuration(EnvBackupInterval, &cfg.BackupInterval)
	overrideDuration(EnvBackupRetention, &cfg.BackupRetention)
}

func overrideString(envKey string, target *string) {
	if envVal := os.Getenv(envKey); envVal != "" {
		*target = envVal
		slog.Info("Overriding value from environment", "key", envKey, "value", envVal)
	}
}

func overrideBool(envKey string, target *bool) {
	envVal := os.Getenv(envKey)
	if envVal == "" {
		return
	}
	if b, err := strconv.ParseBool(envVal); err == nil {
		*target = b
		slog.Info("Overriding flag from environment", "key", envKey, "value", b)
	} else {
		slog.Warn("Invalid boolean in env var, using default", "key", envKey, "value", envVal)
	}
}

func overrideDuration(envKey string, target *time.Duration) {
	envVal := os.Getenv(envKey)
	if envVal != "" {
		if d, err := time.ParseDuration(envVal); err == nil && d >= 0 {
			*target = d
			slog.Info("Overriding duration from environment", "key", envKey, "value", envVal)
		} else {
			slog.Warn("Invalid duration format in env var, using default", "key", envKey, "value", envVal)
		}
	}
}
