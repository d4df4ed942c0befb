package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// schema создаёт таблицы, если их ещё нет. Выполняется при каждом запуске.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS account_session (
		phone     TEXT PRIMARY KEY,
		data_json TEXT NOT NULL,
		date_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS comment_log (
		id         BIGSERIAL PRIMARY KEY,
		phone      TEXT NOT NULL,
		channel    TEXT NOT NULL,
		channel_id BIGINT NOT NULL,
		post_id    INTEGER NOT NULL,
		text       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS account_floodwait (
		phone           TEXT PRIMARY KEY,
		floodwait_until TIMESTAMPTZ NOT NULL
	)`,
}

type DB struct {
	Conn *sql.DB
}

func NewDB(conn *sql.DB) *DB {
	return &DB{Conn: conn}
}

// Open подключается к Postgres, проверяет соединение и готовит схему.
func Open(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	db := NewDB(conn)
	if err := db.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema создаёт недостающие таблицы.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}
