package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// FindChannel находит вещательный канал в списке чатов, группы обсуждений пропускаются.
func FindChannel(chats []tg.ChatClass) (*tg.Channel, error) {
	for _, peer := range chats {
		ch, ok := peer.(*tg.Channel)
		if !ok || ch.Megagroup {
			continue
		}
		if ch.Broadcast {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("broadcast channel not found")
}

// JoinChannel подписывает аккаунт на канал. Повторная подписка ошибкой не считается.
func JoinChannel(ctx context.Context, api *tg.Client, channel *tg.Channel) error {
	_, err := api.ChannelsJoinChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	})
	if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
		return nil
	}
	return err
}

// ResolveChannels разрешает имена каналов аккаунта и подписывается на них,
// иначе Telegram не присылает обновления. Ошибки только логируются:
// маршрут по имени остаётся рабочим.
func ResolveChannels(ctx context.Context, api *tg.Client, router *Router, log *zap.Logger) {
	for _, handle := range router.Handles() {
		resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: handle})
		if err != nil {
			log.Warn("не удалось получить канал", zap.String("channel", handle), zap.Error(err))
			continue
		}
		ch, err := FindChannel(resolved.GetChats())
		if err != nil {
			log.Warn("канал не найден", zap.String("channel", handle), zap.Error(err))
			continue
		}
		router.Bind(handle, ch)

		if err := JoinChannel(ctx, api, ch); err != nil {
			log.Warn("подписка на канал", zap.String("channel", handle), zap.Error(err))
			continue
		}
		log.Debug("канал подключён", zap.String("channel", handle), zap.Int64("channel_id", ch.ID))
	}
}
