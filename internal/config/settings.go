package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	configPathEnv  = "CONFIG_PATH"
	sessionDirEnv  = "SESSION_DIR"
	logDirEnv      = "LOG_DIR"
	logLevelEnv    = "LOG_LEVEL"
	databaseURLEnv = "DATABASE_URL"
	statusAddrEnv  = "STATUS_ADDR"
	replyDelayEnv  = "REPLY_DELAY"
)

// Значения по умолчанию, если переменная окружения не задана.
const (
	DefaultConfigPath = "config.json"
	DefaultSessionDir = "sessions"
	DefaultLogDir     = "logs"
	DefaultLogLevel   = "info"
	DefaultReplyDelay = 2 * time.Second
)

// Settings — параметры запуска процесса, не относящиеся к списку аккаунтов.
type Settings struct {
	ConfigPath string
	SessionDir string
	LogDir     string
	LogLevel   string
	// DatabaseURL включает хранение сессий и журнала комментариев в Postgres.
	DatabaseURL string
	// StatusAddr включает HTTP-эндпоинты состояния.
	StatusAddr string
	ReplyDelay time.Duration
}

// LoadSettings подгружает переменные из env-файла (если он есть) и собирает Settings.
// Уже выставленные переменные окружения godotenv не перезаписывает.
func LoadSettings(envFile string) (Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	s := Settings{
		ConfigPath:  getEnv(configPathEnv, DefaultConfigPath),
		SessionDir:  getEnv(sessionDirEnv, DefaultSessionDir),
		LogDir:      getEnv(logDirEnv, DefaultLogDir),
		LogLevel:    getEnv(logLevelEnv, DefaultLogLevel),
		DatabaseURL: os.Getenv(databaseURLEnv),
		StatusAddr:  os.Getenv(statusAddrEnv),
		ReplyDelay:  DefaultReplyDelay,
	}

	if raw := os.Getenv(replyDelayEnv); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", replyDelayEnv, err)
		}
		if d < 0 {
			return Settings{}, fmt.Errorf("%s: отрицательная задержка %s", replyDelayEnv, d)
		}
		s.ReplyDelay = d
	}

	return s, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
