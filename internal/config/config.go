package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/t1000cgm/companion/internal/logger"
)

type Config struct {
	DataDir  string
	Redis    RedisConfig
	DB       DBConfig
	Telegram TelegramConfig
	Logger   LoggerConfig
}

// RedisConfig selects the Redis persistence backend. When Host is empty
// the engine persists its records to JSON files under DataDir instead.
type RedisConfig struct {
	Host string
	Port string
}

// DBConfig configures the optional Postgres readings archive.
type DBConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// TelegramConfig configures the optional alert mirror. Both fields must be
// set for the mirror to activate.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}

func Load() (*Config, error) {
	chatID := int64(0)
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		chatID = parsed
	}

	return &Config{
		DataDir: getEnvOrDefault("DATA_DIR", "data"),
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		DB: DBConfig{
			Enabled:  parseBool(os.Getenv("ARCHIVE_ENABLED")),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "cgm_companion"),
		},
		Telegram: TelegramConfig{
			Token:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID: chatID,
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}, nil
}
