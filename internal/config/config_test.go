package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the .env lookup at an empty directory so a developer's own
// .env never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvDotEnvFile, filepath.Join(dir, "missing.env"))
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "data/mcp_server.json", cfg.DataPath)
	assert.Equal(t, "backups", cfg.BackupDir)
	assert.True(t, cfg.EnableBackups)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.BackupRetention)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.SeedSampleData)
	assert.False(t, cfg.ForceReset)
	assert.Equal(t, 10, cfg.BulkDeleteWarning)
}

func TestLoadConfig_Env(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDataPath, "/tmp/db.json")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvForceReset, "true")
	t.Setenv(EnvBackupInterval, "15m")
	t.Setenv(EnvBulkDeleteWarning, "25")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/db.json", cfg.DataPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.ForceReset)
	assert.Equal(t, 15*time.Minute, cfg.BackupInterval)
	assert.Equal(t, 25, cfg.BulkDeleteWarning)
}

func TestLoadConfig_InvalidEnvKeepsPrevious(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "loud")
	t.Setenv(EnvLogFormat, "xml")
	t.Setenv(EnvSeedSampleData, "maybe")
	t.Setenv(EnvBackupRetention, "forever")
	t.Setenv(EnvBulkDeleteWarning, "-3")

	cfg := LoadConfig()
	def := NewDefaultConfig()
	assert.Equal(t, def.LogLevel, cfg.LogLevel)
	assert.Equal(t, def.LogFormat, cfg.LogFormat)
	assert.Equal(t, def.SeedSampleData, cfg.SeedSampleData)
	assert.Equal(t, def.BackupRetention, cfg.BackupRetention)
	assert.Equal(t, def.BulkDeleteWarning, cfg.BulkDeleteWarning)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, `
data_path: /srv/data.json
backup_interval: 30m
enable_backups: false
server_name: from-yaml
log_format: json
`)
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvServerName, "from-env")

	cfg := LoadConfig()
	assert.Equal(t, "/srv/data.json", cfg.DataPath)
	assert.Equal(t, 30*time.Minute, cfg.BackupInterval)
	assert.False(t, cfg.EnableBackups)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "from-env", cfg.ServerName, "environment overrides the file")
	assert.Equal(t, "info", cfg.LogLevel, "unset keys keep their defaults")
}

func TestLoadConfig_BadYAMLIsIgnored(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	writeFile(t, path, "data_path: [unterminated\n")
	t.Setenv(EnvConfigFile, path)

	assert.Equal(t, NewDefaultConfig(), LoadConfig())

	t.Setenv(EnvConfigFile, filepath.Join(dir, "nope.yml"))
	assert.Equal(t, NewDefaultConfig(), LoadConfig())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "NOSQLMCP_BACKUP_DIR=/var/backups/nosql\nNOSQLMCP_SEED_SAMPLE_DATA=false\n")
	t.Setenv(EnvDotEnvFile, envFile)
	t.Cleanup(func() {
		os.Unsetenv(EnvBackupDir)
		os.Unsetenv(EnvSeedSampleData)
	})

	cfg := LoadConfig()
	assert.Equal(t, "/var/backups/nosql", cfg.BackupDir)
	assert.False(t, cfg.SeedSampleData)
}
