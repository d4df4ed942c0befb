package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gotd/td/session"
)

// SessionStorage хранит сессию Telegram аккаунта в таблице account_session.
// Реализует session.Storage, ключ — номер телефона.
type SessionStorage struct {
	DB    *DB
	Phone string
}

// LoadSession загружает текст сессии из БД.
func (s *SessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, session.ErrNotFound
	}

	var data string
	// На один номер хранится не более одной записи.
	err := s.DB.Conn.QueryRowContext(ctx, "SELECT data_json FROM account_session WHERE phone = $1", s.Phone).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// StoreSession сохраняет текст сессии в БД.
func (s *SessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s == nil || s.DB == nil {
		return session.ErrNotFound
	}
	_, err := s.DB.Conn.ExecContext(
		ctx,
		"INSERT INTO account_session (phone, data_json) VALUES ($1, $2) "+
			"ON CONFLICT (phone) DO UPDATE SET data_json = EXCLUDED.data_json, date_time = NOW()",
		s.Phone,
		string(data),
	)
	return err
}
