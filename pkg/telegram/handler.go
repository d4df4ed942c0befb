package telegram

import (
	"context"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// RegisterHandlers подписывает аккаунт на новые сообщения каналов.
// Сообщения из каналов, которых нет в router, игнорируются.
func RegisterHandlers(dispatcher tg.UpdateDispatcher, router *Router, commenter *Commenter, log *zap.Logger) {
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, upd *tg.UpdateNewChannelMessage) error {
		return handleChannelMessage(ctx, e, upd, router, commenter, log)
	})
}

func handleChannelMessage(ctx context.Context, e tg.Entities, upd *tg.UpdateNewChannelMessage, router *Router, commenter *Commenter, log *zap.Logger) error {
	msg, ok := upd.Message.(*tg.Message)
	if !ok || msg.Out {
		return nil
	}
	peer, ok := msg.PeerID.(*tg.PeerChannel)
	if !ok {
		return nil
	}

	ch, channel, ok := router.Lookup(peer.ChannelID, e.Channels[peer.ChannelID])
	if !ok {
		return nil
	}

	log.Info("новый пост в канале",
		zap.String("channel", ch.Username),
		zap.Int("post", msg.ID),
		zap.String("text", preview(msg.Message, 30)),
	)
	return commenter.Handle(ctx, Post{Handle: NormalizeUsername(ch.Username), Channel: channel, MsgID: msg.ID}, ch)
}

// preview обрезает текст до n символов для журнала.
func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
