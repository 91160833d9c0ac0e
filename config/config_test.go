package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigGroupedAndFlat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9090", "JWTSecret": "from-json", "AllowedOrigins": ["https://a.example"]},
		"database": {"DBHost": "db.internal", "DBName": "files"},
		"storage": {"Root": "/srv/data", "MaxUploadMB": 10, "StrictOwnership": true},
		"log": {"Level": "debug", "Compress": true},
		"RedisHost": "cache.internal",
		"RedisPort": 6380
	}`), 0o644))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))
	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "from-json", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example"}, c.AllowedOrigins)
	assert.Equal(t, "db.internal", c.DBHost)
	assert.Equal(t, "files", c.DBName)
	assert.Equal(t, "/srv/data", c.StorageRoot)
	assert.Equal(t, 10, c.MaxUploadMB)
	assert.True(t, c.StrictOwnership)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
	assert.Equal(t, "cache.internal", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
}

func TestLoadJSONConfigMissingAndInvalid(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"app":`), 0o644))
	assert.Error(t, loadJSONConfig(bad, &c))
}

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 50, c.MaxUploadMB)
	assert.Equal(t, int64(50*1024*1024), c.MaxUploadBytes())
	assert.Equal(t, ".", c.StorageRoot)
	assert.Equal(t, "uploads", c.UploadsDir)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Empty(t, c.RedisHost)
	assert.False(t, c.StrictOwnership)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("STRICT_OWNERSHIP", "true")
	t.Setenv("UPLOADS_DIR", "blobs")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	c := AppConfig{AppPort: "9090", MaxUploadMB: 50}
	applyEnvOverrides(&c)
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, 5, c.MaxUploadMB)
	assert.True(t, c.StrictOwnership)
	assert.Equal(t, "blobs", c.UploadsDir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	c := AppConfig{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "files"}
	assert.Equal(t, "u:p@tcp(h:3306)/files?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true", c.DSN())

	c.DatabaseURI = "custom-dsn"
	assert.Equal(t, "custom-dsn", c.DSN())
}
