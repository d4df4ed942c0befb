package telegram

import (
	"fmt"
	"path/filepath"
	"strings"

	"atg_autocomment/models"
	"atg_autocomment/pkg/storage"

	"golang.org/x/net/proxy"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"go.uber.org/zap"
)

// SessionFileName — имя файла сессии аккаунта.
func SessionFileName(phone string) string {
	return "session_" + strings.TrimPrefix(phone, "+") + ".json"
}

// SessionStorage выбирает хранилище сессии: таблица Postgres, если db задана, иначе файл в dir.
func SessionStorage(dir string, db *storage.DB, phone string) session.Storage {
	if db != nil {
		return &storage.SessionStorage{DB: db, Phone: phone}
	}
	return &session.FileStorage{Path: filepath.Join(dir, SessionFileName(phone))}
}

// NewClient создаёт клиента Telegram для аккаунта.
// Если у аккаунта задан прокси, соединение идёт через SOCKS5.
func NewClient(acc models.Account, store session.Storage, handler telegram.UpdateHandler, log *zap.Logger) (*telegram.Client, error) {
	opts := telegram.Options{
		SessionStorage: store,
		UpdateHandler:  handler,
		Logger:         log,
	}
	if p := acc.Proxy; p != nil {
		resolver, err := proxyResolver(p)
		if err != nil {
			return nil, err
		}
		opts.Resolver = resolver
		log.Info("подключение через прокси", zap.String("proxy", fmt.Sprintf("%s:%d", p.IP, p.Port)))
	}
	return telegram.NewClient(acc.ApiID, acc.ApiHash, opts), nil
}

func proxyResolver(p *models.Proxy) (dcs.Resolver, error) {
	addr := fmt.Sprintf("%s:%d", p.IP, p.Port)
	var auth *proxy.Auth
	if p.Login != "" || p.Password != "" {
		auth = &proxy.Auth{User: p.Login, Password: p.Password}
	}
	d, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy dialer: %w", err)
	}
	dc, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy dialer missing context")
	}
	return dcs.Plain(dcs.PlainOptions{Dial: dc.DialContext}), nil
}
