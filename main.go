package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atg_autocomment/internal/config"
	"atg_autocomment/internal/logger"
	"atg_autocomment/internal/runner"
	"atg_autocomment/internal/status"
	"atg_autocomment/models"
	"atg_autocomment/pkg/storage"
	"atg_autocomment/pkg/telegram"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "autocomment",
	Short:         "Оставляет комментарии под новыми постами каналов от имени аккаунтов Telegram",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "путь к config.json (по умолчанию CONFIG_PATH или config.json)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "уровень журнала (по умолчанию LOG_LEVEL или info)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(".env")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("config") {
		settings.ConfigPath = configPath
	}
	if cmd.Flags().Changed("log-level") {
		settings.LogLevel = logLevel
	}

	log, err := logger.New(settings.LogDir, settings.LogLevel, time.Now())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, settings, log); err != nil {
		log.Error("критическая ошибка", zap.Error(err))
		return err
	}
	return nil
}

func serve(ctx context.Context, settings config.Settings, log *zap.Logger) error {
	cfg := config.Load(settings.ConfigPath, log)
	if len(cfg.Accounts) == 0 {
		log.Info("в конфигурации нет аккаунтов")
		fmt.Println("No accounts configured. Please update config.json.")
		return nil
	}

	var db *storage.DB
	if settings.DatabaseURL != "" {
		var err error
		db, err = storage.Open(ctx, settings.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("сессии и журнал комментариев хранятся в Postgres")
	}

	opts := telegram.Options{
		SessionDir: settings.SessionDir,
		DB:         db,
		ReplyDelay: settings.ReplyDelay,
		Input:      os.Stdin,
		Output:     os.Stdout,
		Logger:     log,
	}
	r := runner.New(func(acc models.Account) runner.Client {
		return telegram.NewSession(acc, opts)
	}, log, os.Stdout)

	if settings.StatusAddr != "" {
		go func() {
			if err := status.Serve(ctx, settings.StatusAddr, r, log.Named("status")); err != nil {
				log.Error("сервер состояния остановлен", zap.Error(err))
			}
		}()
	}

	err := r.Run(ctx, cfg.Accounts)
	if errors.Is(err, runner.ErrNoClients) {
		// Аккаунты есть, но ни один не подключился: причины уже в журнале.
		fmt.Println("No clients were initialized successfully. See the log for details.")
		return nil
	}
	return err
}
