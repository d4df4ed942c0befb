package status

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter регистрирует эндпоинты состояния бота.
func SetupRouter(p Provider) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := NewHandler(p)
	r.GET("/health", h.Health)
	r.GET("/sessions", h.Sessions)
	r.GET("/sessions/:phone", h.Session)
	return r
}

// Serve поднимает HTTP-сервер состояния и гасит его при отмене ctx.
func Serve(ctx context.Context, addr string, p Provider, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           SetupRouter(p),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("остановка сервера состояния", zap.Error(err))
		}
	}()

	log.Info("сервер состояния запущен", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
