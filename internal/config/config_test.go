package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"DAS_SELF_URL":            "http://das.example.com/",
		"DAS_DOWNLOADER_URL":      "http://downloader.example.com",
		"DAS_METADATA_PARSER_URL": "http://metadata.example.com",
		"DAS_USER_MANAGEMENT_URL": "http://user-management.example.com",
		"DAS_JWT_KEY_URL":         "http://uaa.example.com/token_key",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.SelfURL != "http://das.example.com" {
		t.Errorf("SelfURL = %q, ожидается без завершающего слэша", cfg.SelfURL)
	}
	if cfg.JWTKeyFormat != KeyFormatPEM {
		t.Errorf("JWTKeyFormat = %q, ожидается pem", cfg.JWTKeyFormat)
	}
	if cfg.JWTBearerPrefix != "bearer" {
		t.Errorf("JWTBearerPrefix = %q, ожидается bearer", cfg.JWTBearerPrefix)
	}
	if cfg.JWTLeeway != 30*time.Second {
		t.Errorf("JWTLeeway = %v, ожидается 30s", cfg.JWTLeeway)
	}
	if cfg.AdminScope != "console.admin" {
		t.Errorf("AdminScope = %q, ожидается console.admin", cfg.AdminScope)
	}
	if cfg.HDFSPrefix != "hdfs://" {
		t.Errorf("HDFSPrefix = %q, ожидается hdfs://", cfg.HDFSPrefix)
	}
	if cfg.StoreBackend != StoreRedis {
		t.Errorf("StoreBackend = %q, ожидается redis", cfg.StoreBackend)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.RedisHash != "acquisition_requests" {
		t.Errorf("RedisHash = %q", cfg.RedisHash)
	}
	if cfg.KeyCacheSize != 10000 || cfg.KeyCacheTTL != 10*time.Minute {
		t.Errorf("KeyCache = %d/%v, ожидается 10000/10m", cfg.KeyCacheSize, cfg.KeyCacheTTL)
	}
	if cfg.DispatchMode != DispatchPool {
		t.Errorf("DispatchMode = %q, ожидается pool", cfg.DispatchMode)
	}
	if cfg.Workers != 4 || cfg.QueueSize != 256 {
		t.Errorf("Workers/QueueSize = %d/%d, ожидается 4/256", cfg.Workers, cfg.QueueSize)
	}
	if cfg.QueueName != "das:jobs" {
		t.Errorf("QueueName = %q", cfg.QueueName)
	}
	if cfg.DownstreamTimeout != 30*time.Second || cfg.PermissionTimeout != 10*time.Second {
		t.Errorf("таймауты = %v/%v", cfg.DownstreamTimeout, cfg.PermissionTimeout)
	}
	if cfg.DephealthGroup != "das" || cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("dephealth = %q/%v", cfg.DephealthGroup, cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_RequiredVars(t *testing.T) {
	for key := range minimalEnvs() {
		t.Run(key, func(t *testing.T) {
			envs := minimalEnvs()
			envs[key] = ""
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatalf("ожидалась ошибка без %s", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("ошибка не упоминает %s: %v", key, err)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"DAS_PORT", "abc"},
		{"DAS_PORT", "70000"},
		{"DAS_LOG_LEVEL", "verbose"},
		{"DAS_LOG_FORMAT", "xml"},
		{"DAS_SELF_URL", "not-a-url"},
		{"DAS_JWT_KEY_FORMAT", "x509"},
		{"DAS_JWT_LEEWAY", "-1s"},
		{"DAS_STORE_BACKEND", "mongo"},
		{"DAS_DISPATCH_MODE", "kafka"},
		{"DAS_WORKERS", "0"},
		{"DAS_QUEUE_SIZE", "0"},
		{"DAS_KEY_CACHE_TTL", "0s"},
		{"DAS_DOWNSTREAM_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			setEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_PostgresBackend(t *testing.T) {
	envs := minimalEnvs()
	envs["DAS_STORE_BACKEND"] = "postgres"
	setEnvs(t, envs)

	if _, err := Load(); err == nil {
		t.Fatal("ожидалась ошибка без параметров PostgreSQL")
	}

	t.Setenv("DAS_DB_HOST", "db")
	t.Setenv("DAS_DB_NAME", "das")
	t.Setenv("DAS_DB_USER", "das")
	t.Setenv("DAS_DB_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBPort != 5432 || cfg.DBSSLMode != "disable" {
		t.Errorf("DBPort/DBSSLMode = %d/%q", cfg.DBPort, cfg.DBSSLMode)
	}
	if want := "host=db port=5432 dbname=das user=das password=secret sslmode=disable"; cfg.DatabaseDSN() != want {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", cfg.DatabaseDSN(), want)
	}
	if strings.Contains(cfg.DatabaseURL(), "secret") {
		t.Errorf("DatabaseURL() содержит пароль: %q", cfg.DatabaseURL())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("parseLogLevel(%q) = %v, %v; ожидается %v", in, got, err, want)
		}
	}
}
