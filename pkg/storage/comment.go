package storage

import (
	"context"
	"time"

	"atg_autocomment/models"
)

// SaveComment добавляет запись в журнал оставленных комментариев.
func (db *DB) SaveComment(ctx context.Context, rec models.CommentRecord) error {
	_, err := db.Conn.ExecContext(ctx, `
		INSERT INTO comment_log (phone, channel, channel_id, post_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.Phone, rec.Channel, rec.ChannelID, rec.PostID, rec.Text, rec.CreatedAt)
	return err
}

// MarkFloodWait фиксирует время окончания флуд-бана для аккаунта.
func (db *DB) MarkFloodWait(ctx context.Context, phone string, until time.Time) error {
	_, err := db.Conn.ExecContext(ctx, `
		INSERT INTO account_floodwait (phone, floodwait_until) VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET floodwait_until = EXCLUDED.floodwait_until
	`, phone, until)
	return err
}
