// Пакет config — загрузка и валидация конфигурации EquipTrak
// из переменных окружения (префикс EQ_).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Окружения запуска.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Режимы аутентификации.
const (
	// AuthModeHMAC — JWT HS256 с общим секретом (EQ_JWT_SECRET).
	AuthModeHMAC = "hmac"
	// AuthModeJWKS — JWT RS256, ключи из JWKS endpoint (EQ_JWKS_URL).
	AuthModeJWKS = "jwks"
	// AuthModeDevelopment — тестовая identity без проверки токена.
	// Запрещён в production.
	AuthModeDevelopment = "development"
)

// Политики вычисления даты повторной проверки.
const (
	// RetestPolicyFixed364 — service_date + 364 дня (историческое поведение).
	RetestPolicyFixed364 = "fixed-364"
	// RetestPolicyCalendarYear — service_date + 1 календарный год.
	RetestPolicyCalendarYear = "calendar-year"
)

// Config содержит все параметры конфигурации EquipTrak.
type Config struct {
	// --- Сервер ---

	// Окружение: development, staging, production
	Environment string
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

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальный размер пула соединений
	DBMaxConns int

	// --- Аутентификация ---

	// Режим: hmac, jwks, development
	AuthMode string
	// Общий секрет HS256 (обязателен для hmac)
	JWTSecret string
	// Issuer выпускаемых и проверяемых токенов
	JWTIssuer string
	// Время жизни выпускаемых токенов
	JWTTTL time.Duration
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// URL JWKS endpoint (обязателен для jwks)
	JWKSURL string
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- Сертификаты ---

	// Политика даты повторной проверки
	RetestPolicy string
	// Окно, в котором сертификат считается "due"
	DueSoonWindow time.Duration
	// Время жизни публичной ссылки на сертификат
	ShareLinkTTL time.Duration
	// Размер LRU-кэша публичных сертификатов
	PublicCacheSize int
	// TTL записи LRU-кэша публичных сертификатов
	PublicCacheTTL time.Duration

	// --- API ---

	// Валидация запросов по OpenAPI-документу
	OpenAPIValidation bool

	// --- Мониторинг зависимостей ---

	DephealthEnabled       bool
	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
// Если задана EQ_ENV_FILE, переменные сначала читаются из этого файла
// (уже установленные переменные окружения не перезаписываются).
func Load() (*Config, error) {
	if envFile := os.Getenv("EQ_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("EQ_ENV_FILE: ошибка чтения %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EQ_ENVIRONMENT — окружение (по умолчанию production)
	cfg.Environment = strings.ToLower(getEnvDefault("EQ_ENVIRONMENT", EnvProduction))
	switch cfg.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return nil, fmt.Errorf("EQ_ENVIRONMENT: недопустимое значение %q, допустимые: development, staging, production", cfg.Environment)
	}

	// EQ_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("EQ_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("EQ_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EQ_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// EQ_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EQ_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EQ_LOG_LEVEL: %w", err)
	}

	// EQ_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("EQ_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EQ_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("EQ_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EQ_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("EQ_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EQ_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("EQ_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EQ_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("EQ_DB_HOST")
	if err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("EQ_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("EQ_DB_PORT: %w", err)
	}
	cfg.DBName, err = getEnvRequired("EQ_DB_NAME")
	if err != nil {
		return nil, err
	}
	cfg.DBUser, err = getEnvRequired("EQ_DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword, err = getEnvRequired("EQ_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// EQ_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("EQ_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("EQ_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// EQ_DB_MAX_CONNS — размер пула (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("EQ_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("EQ_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 500 {
		return nil, fmt.Errorf("EQ_DB_MAX_CONNS: значение %d вне допустимого диапазона 1-500", cfg.DBMaxConns)
	}

	// --- Аутентификация ---

	if err := cfg.loadAuth(); err != nil {
		return nil, err
	}

	// --- Сертификаты ---

	cfg.RetestPolicy = getEnvDefault("EQ_RETEST_POLICY", RetestPolicyFixed364)
	if cfg.RetestPolicy != RetestPolicyFixed364 && cfg.RetestPolicy != RetestPolicyCalendarYear {
		return nil, fmt.Errorf("EQ_RETEST_POLICY: недопустимое значение %q, допустимые: fixed-364, calendar-year", cfg.RetestPolicy)
	}

	cfg.DueSoonWindow, err = getEnvPositiveDuration("EQ_DUE_SOON_WINDOW", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EQ_DUE_SOON_WINDOW: %w", err)
	}
	cfg.ShareLinkTTL, err = getEnvPositiveDuration("EQ_SHARE_LINK_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EQ_SHARE_LINK_TTL: %w", err)
	}
	cfg.PublicCacheSize, err = getEnvInt("EQ_PUBLIC_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("EQ_PUBLIC_CACHE_SIZE: %w", err)
	}
	if cfg.PublicCacheSize < 1 {
		return nil, fmt.Errorf("EQ_PUBLIC_CACHE_SIZE: значение должно быть > 0")
	}
	cfg.PublicCacheTTL, err = getEnvPositiveDuration("EQ_PUBLIC_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EQ_PUBLIC_CACHE_TTL: %w", err)
	}

	// --- API ---

	cfg.OpenAPIValidation, err = getEnvBool("EQ_OPENAPI_VALIDATION", true)
	if err != nil {
		return nil, fmt.Errorf("EQ_OPENAPI_VALIDATION: %w", err)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthEnabled, err = getEnvBool("EQ_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("EQ_DEPHEALTH_ENABLED: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("EQ_DEPHEALTH_GROUP", "equiptrak")
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("EQ_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EQ_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("EQ_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EQ_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadAuth читает параметры аутентификации и проверяет их согласованность
// с выбранным режимом.
func (c *Config) loadAuth() error {
	var err error

	c.AuthMode = strings.ToLower(getEnvDefault("EQ_AUTH_MODE", AuthModeHMAC))
	c.JWTIssuer = getEnvDefault("EQ_JWT_ISSUER", "equiptrak")

	c.JWTTTL, err = getEnvPositiveDuration("EQ_JWT_TTL", 24*time.Hour)
	if err != nil {
		return fmt.Errorf("EQ_JWT_TTL: %w", err)
	}
	c.JWTLeeway, err = getEnvDuration("EQ_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return fmt.Errorf("EQ_JWT_LEEWAY: %w", err)
	}
	c.JWKSRefreshInterval, err = getEnvPositiveDuration("EQ_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return fmt.Errorf("EQ_JWKS_REFRESH_INTERVAL: %w", err)
	}

	switch c.AuthMode {
	case AuthModeHMAC:
		c.JWTSecret, err = getEnvRequired("EQ_JWT_SECRET")
		if err != nil {
			return err
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("EQ_JWT_SECRET: секрет должен быть не короче 32 символов")
		}
	case AuthModeJWKS:
		c.JWKSURL, err = getEnvRequired("EQ_JWKS_URL")
		if err != nil {
			return err
		}
		if _, parseErr := url.ParseRequestURI(c.JWKSURL); parseErr != nil {
			return fmt.Errorf("EQ_JWKS_URL: некорректный URL %q", c.JWKSURL)
		}
		// Секрет опционален: нужен только для выпуска токенов через /api/auth/login
		c.JWTSecret = os.Getenv("EQ_JWT_SECRET")
	case AuthModeDevelopment:
		if c.Environment == EnvProduction {
			return fmt.Errorf("EQ_AUTH_MODE: режим development запрещён при EQ_ENVIRONMENT=production")
		}
		c.JWTSecret = os.Getenv("EQ_JWT_SECRET")
	default:
		return fmt.Errorf("EQ_AUTH_MODE: недопустимое значение %q, допустимые: hmac, jwks, development", c.AuthMode)
	}

	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL для pgxpool.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode, c.DBMaxConns,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля — для лейблов метрик.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
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

// getEnvPositiveDuration — как getEnvDuration, но значение должно быть > 0.
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

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
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
