package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	DatabaseURI        string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Redis for list caching; caching is disabled when RedisHost is empty
	RedisHost           string
	RedisPort           int
	RedisDB             int
	RedisPassword       string
	ListCacheTTLSeconds int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// File storage
	StorageRoot string // base directory stored relative paths are resolved against
	UploadsDir  string // uploads root, relative to StorageRoot
	MaxUploadMB int
	// StrictOwnership reports rename/delete of unmatched ids as 404 instead of success.
	StrictOwnership bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration from environment variables. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Fatalf("invalid config/config.json: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// MaxUploadBytes is the per-file size ceiling in bytes.
func (c AppConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}
	applyJSON(raw, out)
	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getBool(m map[string]any, key string) (bool, bool) {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

// setString assigns v to dst unless v is empty.
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func applyJSON(raw map[string]any, out *AppConfig) {
	// Grouped sections first
	if app, ok := raw["app"].(map[string]any); ok {
		setString(&out.AppPort, getString(app, "AppPort"))
		setString(&out.JWTSecret, getString(app, "JWTSecret"))
		setInt(&out.RateLimitPerMinute, getInt(app, "RateLimitPerMinute"))
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		setString(&out.GinMode, getString(g, "Mode"))
		setString(&out.GinPath, getString(g, "LogPath"))
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		setString(&out.DatabaseURI, getString(dbs, "DatabaseURI"))
		setString(&out.DBHost, getString(dbs, "DBHost"))
		setString(&out.DBPort, getString(dbs, "DBPort"))
		setString(&out.DBUser, getString(dbs, "DBUser"))
		setString(&out.DBPassword, getString(dbs, "DBPassword"))
		setString(&out.DBName, getString(dbs, "DBName"))
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		setString(&out.RedisHost, getString(rds, "RedisHost"))
		setInt(&out.RedisPort, getInt(rds, "RedisPort"))
		setInt(&out.RedisDB, getInt(rds, "RedisDB"))
		setString(&out.RedisPassword, getString(rds, "RedisPassword"))
		setInt(&out.ListCacheTTLSeconds, getInt(rds, "ListCacheTTLSeconds"))
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		setString(&out.LogLevel, getString(lg, "Level"))
		setString(&out.LogPath, getString(lg, "Path"))
		setString(&out.GinMode, getString(lg, "GinMode"))
		setString(&out.GinPath, getString(lg, "GinPath"))
		setInt(&out.LogMaxSizeMB, getInt(lg, "MaxSizeMB"))
		setInt(&out.LogMaxBackups, getInt(lg, "MaxBackups"))
		setInt(&out.LogMaxAgeDays, getInt(lg, "MaxAgeDays"))
		if b, ok := getBool(lg, "Compress"); ok {
			out.LogCompress = b
		}
	}

	if st, ok := raw["storage"].(map[string]any); ok {
		setString(&out.StorageRoot, getString(st, "Root"))
		setString(&out.UploadsDir, getString(st, "UploadsDir"))
		setInt(&out.MaxUploadMB, getInt(st, "MaxUploadMB"))
		if b, ok := getBool(st, "StrictOwnership"); ok {
			out.StrictOwnership = b
		}
	}

	// Also support reading flat keys directly for backward compatibility
	flatStrings := map[string]*string{
		"AppPort":       &out.AppPort,
		"JWTSecret":     &out.JWTSecret,
		"GinMode":       &out.GinMode,
		"GinPath":       &out.GinPath,
		"DatabaseURI":   &out.DatabaseURI,
		"DBHost":        &out.DBHost,
		"DBPort":        &out.DBPort,
		"DBUser":        &out.DBUser,
		"DBPassword":    &out.DBPassword,
		"DBName":        &out.DBName,
		"RedisHost":     &out.RedisHost,
		"RedisPassword": &out.RedisPassword,
		"LogLevel":      &out.LogLevel,
		"LogPath":       &out.LogPath,
		"StorageRoot":   &out.StorageRoot,
		"UploadsDir":    &out.UploadsDir,
	}
	for key, dst := range flatStrings {
		if *dst == "" {
			*dst = getString(raw, key)
		}
	}
	flatInts := map[string]*int{
		"RateLimitPerMinute":  &out.RateLimitPerMinute,
		"RedisPort":           &out.RedisPort,
		"RedisDB":             &out.RedisDB,
		"ListCacheTTLSeconds": &out.ListCacheTTLSeconds,
		"LogMaxSizeMB":        &out.LogMaxSizeMB,
		"LogMaxBackups":       &out.LogMaxBackups,
		"LogMaxAgeDays":       &out.LogMaxAgeDays,
		"MaxUploadMB":         &out.MaxUploadMB,
	}
	for key, dst := range flatInts {
		if *dst == 0 {
			*dst = getInt(raw, key)
		}
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = getStringSlice(raw, "AllowedOrigins")
	}
	if b, ok := getBool(raw, "LogCompress"); ok {
		out.LogCompress = b
	}
	if b, ok := getBool(raw, "StrictOwnership"); ok {
		out.StrictOwnership = b
	}
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "filebox"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.ListCacheTTLSeconds == 0 {
		c.ListCacheTTLSeconds = 300
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.StorageRoot == "" {
		c.StorageRoot = "."
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "uploads"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 50
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LIST_CACHE_TTL_SECONDS", ""); v != "" {
		c.ListCacheTTLSeconds = mustParseInt(v)
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	// Storage env overrides
	if v := getEnv("STORAGE_ROOT", ""); v != "" {
		c.StorageRoot = v
	}
	if v := getEnv("UPLOADS_DIR", ""); v != "" {
		c.UploadsDir = v
	}
	if v := getEnv("MAX_UPLOAD_MB", ""); v != "" {
		c.MaxUploadMB = mustParseInt(v)
	}
	if v := getEnv("STRICT_OWNERSHIP", ""); v != "" {
		c.StrictOwnership = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
