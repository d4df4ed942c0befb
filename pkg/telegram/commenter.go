package telegram

import (
	"context"
	"sync"
	"time"

	"atg_autocomment/internal/common"
	"atg_autocomment/models"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// Post — новый пост в канале, под которым нужно оставить комментарий.
type Post struct {
	Handle  string
	Channel *tg.Channel
	MsgID   int
}

// Sender публикует текст в ответ на пост.
type Sender interface {
	Send(ctx context.Context, post Post, text string) error
}

// CommentStore сохраняет результаты работы. Необязателен.
type CommentStore interface {
	SaveComment(ctx context.Context, rec models.CommentRecord) error
	MarkFloodWait(ctx context.Context, phone string, until time.Time) error
}

// Commenter оставляет настроенный комментарий под постом.
// Отправки одного аккаунта идут строго по очереди: пока длится пауза FLOOD_WAIT,
// следующая отправка не начнётся.
type Commenter struct {
	sender Sender
	store  CommentStore
	phone  string
	delay  time.Duration
	log    *zap.Logger

	mu sync.Mutex

	wait      func(ctx context.Context, d time.Duration) error
	floodWait func(err error) (time.Duration, bool)
	now       func() time.Time
}

// NewCommenter создаёт отправителя комментариев для аккаунта phone.
// store может быть nil.
func NewCommenter(sender Sender, store CommentStore, phone string, delay time.Duration, log *zap.Logger) *Commenter {
	return &Commenter{
		sender:    sender,
		store:     store,
		phone:     phone,
		delay:     delay,
		log:       log,
		wait:      common.Wait,
		floodWait: tgerr.AsFloodWait,
		now:       time.Now,
	}
}

// Handle ждёт задержку против флуда и отправляет комментарий.
// Ошибки отправки логируются и событие отбрасывается, наружу уходит только отмена контекста.
func (c *Commenter) Handle(ctx context.Context, post Post, ch models.Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.log.With(zap.String("channel", ch.Username), zap.Int("post", post.MsgID))

	if err := c.wait(ctx, c.delay); err != nil {
		return err
	}

	err := c.sender.Send(ctx, post, ch.Comment)
	if d, ok := c.floodWait(err); ok {
		log.Warn("FloodWait: пауза перед следующими отправками", zap.Duration("wait", d))
		if c.store != nil {
			if err := c.store.MarkFloodWait(ctx, c.phone, c.now().Add(d)); err != nil {
				log.Error("не удалось сохранить флуд-бан", zap.Error(err))
			}
		}
		// Комментарий к этому посту не повторяем.
		return c.wait(ctx, d)
	}
	if err != nil {
		log.Error("не удалось оставить комментарий", zap.Error(err))
		return nil
	}

	log.Info("комментарий оставлен", zap.String("comment", ch.Comment))
	if c.store != nil {
		rec := models.CommentRecord{
			Phone:     c.phone,
			Channel:   NormalizeUsername(ch.Username),
			PostID:    post.MsgID,
			Text:      ch.Comment,
			CreatedAt: c.now(),
		}
		if post.Channel != nil {
			rec.ChannelID = post.Channel.ID
		}
		if err := c.store.SaveComment(ctx, rec); err != nil {
			log.Error("не удалось записать комментарий в журнал", zap.Error(err))
		}
	}
	return nil
}
