package models

import "time"

// CommentRecord — запись об оставленном комментарии.
type CommentRecord struct {
	Phone     string
	Channel   string
	ChannelID int64
	PostID    int
	Text      string
	CreatedAt time.Time
}
