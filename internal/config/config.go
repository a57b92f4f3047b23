// Пакет config — загрузка и валидация конфигурации Data Acquisition Service
// из переменных окружения (префикс DAS_).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Хранилища заявок.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Режимы отправки исходящих вызовов.
const (
	// DispatchPool — пул горутин внутри процесса API.
	DispatchPool = "pool"
	// DispatchQueue — список Redis, разбираемый процессом das-worker.
	DispatchQueue = "queue"
)

// Форматы ключа проверки JWT.
const (
	KeyFormatPEM  = "pem"
	KeyFormatJWKS = "jwks"
)

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Внешние сервисы ---

	// Публичный базовый URL сервиса (для callback URL)
	SelfURL string
	// Базовый URL Downloader
	DownloaderURL string
	// Базовый URL Metadata Parser
	MetadataParserURL string
	// Базовый URL сервиса управления пользователями
	UserManagementURL string
	// Таймаут исходящих вызовов к Downloader и Metadata Parser
	DownstreamTimeout time.Duration
	// Таймаут запроса к сервису прав
	PermissionTimeout time.Duration
	// Путь к CA-сертификату для исходящих TLS-соединений (опционально)
	CACertPath string

	// --- JWT ---

	// URL ключа проверки подписи (UAA token_key или JWKS)
	JWTKeyURL string
	// Формат ключа: pem или jwks
	JWTKeyFormat string
	// Интервал обновления JWKS
	JWTJWKSRefreshInterval time.Duration
	// Схема заголовка Authorization
	JWTBearerPrefix string
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Scope администратора, дающий доступ ко всем организациям
	AdminScope string

	// --- Заявки ---

	// Префикс источника в распределённой ФС (загрузка пропускается)
	HDFSPrefix string

	// --- Хранилище ---

	// Хранилище заявок: redis, postgres, memory
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Имя хеша Redis с заявками
	RedisHash string
	// Размер и TTL кэша ключей заявок
	KeyCacheSize int
	KeyCacheTTL  time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// --- Исходящие вызовы ---

	// Режим: pool или queue
	DispatchMode string
	// Количество воркеров пула (и das-worker)
	Workers int
	// Размер буфера пула
	QueueSize int
	// Ключ списка Redis для очереди заданий
	QueueName string

	// --- topologymetrics ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// DAS_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("DAS_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("DAS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DAS_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// DAS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DAS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DAS_LOG_LEVEL: %w", err)
	}

	// DAS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DAS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DAS_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("DAS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("DAS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("DAS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Внешние сервисы ---

	if cfg.SelfURL, err = getEnvURL("DAS_SELF_URL"); err != nil {
		return nil, err
	}
	if cfg.DownloaderURL, err = getEnvURL("DAS_DOWNLOADER_URL"); err != nil {
		return nil, err
	}
	if cfg.MetadataParserURL, err = getEnvURL("DAS_METADATA_PARSER_URL"); err != nil {
		return nil, err
	}
	if cfg.UserManagementURL, err = getEnvURL("DAS_USER_MANAGEMENT_URL"); err != nil {
		return nil, err
	}

	// DAS_DOWNSTREAM_TIMEOUT — таймаут исходящих вызовов (по умолчанию 30s)
	cfg.DownstreamTimeout, err = getEnvPositiveDuration("DAS_DOWNSTREAM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_DOWNSTREAM_TIMEOUT: %w", err)
	}

	// DAS_PERMISSION_TIMEOUT — таймаут сервиса прав (по умолчанию 10s)
	cfg.PermissionTimeout, err = getEnvPositiveDuration("DAS_PERMISSION_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_PERMISSION_TIMEOUT: %w", err)
	}

	// DAS_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.CACertPath = getEnvDefault("DAS_CA_CERT_PATH", "")

	// --- JWT ---

	// DAS_JWT_KEY_URL — обязательный
	if cfg.JWTKeyURL, err = getEnvURL("DAS_JWT_KEY_URL"); err != nil {
		return nil, err
	}

	cfg.JWTKeyFormat = strings.ToLower(getEnvDefault("DAS_JWT_KEY_FORMAT", KeyFormatPEM))
	if cfg.JWTKeyFormat != KeyFormatPEM && cfg.JWTKeyFormat != KeyFormatJWKS {
		return nil, fmt.Errorf("DAS_JWT_KEY_FORMAT: недопустимое значение %q, допустимые: pem, jwks", cfg.JWTKeyFormat)
	}

	cfg.JWTJWKSRefreshInterval, err = getEnvPositiveDuration("DAS_JWT_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DAS_JWT_JWKS_REFRESH_INTERVAL: %w", err)
	}

	cfg.JWTBearerPrefix = getEnvDefault("DAS_JWT_BEARER_PREFIX", "bearer")

	cfg.JWTLeeway, err = getEnvDuration("DAS_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_JWT_LEEWAY: %w", err)
	}
	if cfg.JWTLeeway < 0 {
		return nil, fmt.Errorf("DAS_JWT_LEEWAY: значение не может быть отрицательным")
	}

	cfg.AdminScope = getEnvDefault("DAS_ADMIN_SCOPE", "console.admin")

	// --- Заявки ---

	cfg.HDFSPrefix = getEnvDefault("DAS_HDFS_PREFIX", "hdfs://")

	// --- Хранилище ---

	cfg.StoreBackend = strings.ToLower(getEnvDefault("DAS_STORE_BACKEND", StoreRedis))
	switch cfg.StoreBackend {
	case StoreRedis, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("DAS_STORE_BACKEND: недопустимое значение %q, допустимые: redis, postgres, memory", cfg.StoreBackend)
	}

	cfg.RedisAddr = getEnvDefault("DAS_REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvDefault("DAS_REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvInt("DAS_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("DAS_REDIS_DB: %w", err)
	}
	cfg.RedisHash = getEnvDefault("DAS_REDIS_HASH", "acquisition_requests")

	cfg.KeyCacheSize, err = getEnvInt("DAS_KEY_CACHE_SIZE", 10000)
	if err != nil {
		return nil, fmt.Errorf("DAS_KEY_CACHE_SIZE: %w", err)
	}
	if cfg.KeyCacheSize < 0 {
		return nil, fmt.Errorf("DAS_KEY_CACHE_SIZE: значение не может быть отрицательным")
	}
	cfg.KeyCacheTTL, err = getEnvPositiveDuration("DAS_KEY_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DAS_KEY_CACHE_TTL: %w", err)
	}

	// --- PostgreSQL (обязателен только для postgres) ---

	if cfg.StoreBackend == StorePostgres {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// --- Исходящие вызовы ---

	cfg.DispatchMode = strings.ToLower(getEnvDefault("DAS_DISPATCH_MODE", DispatchPool))
	if cfg.DispatchMode != DispatchPool && cfg.DispatchMode != DispatchQueue {
		return nil, fmt.Errorf("DAS_DISPATCH_MODE: недопустимое значение %q, допустимые: pool, queue", cfg.DispatchMode)
	}

	cfg.Workers, err = getEnvInt("DAS_WORKERS", 4)
	if err != nil {
		return nil, fmt.Errorf("DAS_WORKERS: %w", err)
	}
	if cfg.Workers < 1 || cfg.Workers > 256 {
		return nil, fmt.Errorf("DAS_WORKERS: значение %d вне допустимого диапазона 1-256", cfg.Workers)
	}

	cfg.QueueSize, err = getEnvInt("DAS_QUEUE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("DAS_QUEUE_SIZE: %w", err)
	}
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("DAS_QUEUE_SIZE: значение должно быть > 0")
	}

	cfg.QueueName = getEnvDefault("DAS_QUEUE_NAME", "das:jobs")

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("DAS_DEPHEALTH_GROUP", "das")
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("DAS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("DAS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DAS_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase загружает параметры PostgreSQL.
func loadDatabase(cfg *Config) error {
	var err error

	if cfg.DBHost, err = getEnvRequired("DAS_DB_HOST"); err != nil {
		return err
	}
	cfg.DBPort, err = getEnvInt("DAS_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("DAS_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("DAS_DB_NAME"); err != nil {
		return err
	}
	if cfg.DBUser, err = getEnvRequired("DAS_DB_USER"); err != nil {
		return err
	}
	if cfg.DBPassword, err = getEnvRequired("DAS_DB_PASSWORD"); err != nil {
		return err
	}

	cfg.DBSSLMode = getEnvDefault("DAS_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("DAS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvURL возвращает обязательный абсолютный URL без завершающего слэша.
func getEnvURL(key string) (string, error) {
	val, err := getEnvRequired(key)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(val)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s: некорректный URL %q", key, val)
	}
	return strings.TrimRight(val, "/"), nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvPositiveDuration — getEnvDuration с проверкой > 0.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
