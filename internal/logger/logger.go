package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logsMaxSize    = 10
	logsMaxBackups = 3
	logsMaxAge     = 7
)

// FileName возвращает имя файла журнала за указанный день.
func FileName(day time.Time) string {
	return fmt.Sprintf("bot_log_%s.log", day.Format("2006-01-02"))
}

// New создаёт логгер, который пишет одновременно в консоль и в файл журнала в dir.
func New(dir, level string, now time.Time) (*zap.Logger, error) {
	atomic, err := getAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName(now)),
		MaxSize:    logsMaxSize, // megabytes
		MaxBackups: logsMaxBackups,
		MaxAge:     logsMaxAge, // days
	})

	return zap.New(getCore(atomic, zapcore.AddSync(os.Stdout), file)), nil
}

func getCore(level zap.AtomicLevel, console, file zapcore.WriteSyncer) zapcore.Core {
	productionCfg := zap.NewProductionEncoderConfig()
	productionCfg.TimeKey = "timestamp"
	productionCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	developmentCfg := zap.NewDevelopmentEncoderConfig()
	developmentCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(developmentCfg), console, level),
		zapcore.NewCore(zapcore.NewJSONEncoder(productionCfg), file, level),
	)
}

func getAtomicLevel(logLevel string) (zap.AtomicLevel, error) {
	var level zapcore.Level
	if err := level.Set(logLevel); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("log level %q: %w", logLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}
