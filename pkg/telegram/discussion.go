package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// errNoDiscussion — у поста нет обсуждения (к каналу не привязана группа).
var errNoDiscussion = errors.New("discussion not found")

// Discussion — группа обсуждения поста и копия поста в ней.
type Discussion struct {
	Chat        *tg.Channel
	PostMessage *tg.Message
}

// GetPostDiscussion получает обсуждение для поста msgID в канале.
func GetPostDiscussion(ctx context.Context, api *tg.Client, channel *tg.Channel, msgID int) (*Discussion, error) {
	discussMsg, err := api.MessagesGetDiscussionMessage(ctx, &tg.MessagesGetDiscussionMessageRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		MsgID: msgID,
	})
	if err != nil {
		return nil, fmt.Errorf("get discussion: %w", err)
	}
	return parseDiscussion(channel.ID, discussMsg.GetChats(), discussMsg.GetMessages())
}

// parseDiscussion выбирает связанный чат (отличный от канала) и корневое сообщение обсуждения в нём.
func parseDiscussion(channelID int64, chats []tg.ChatClass, messages []tg.MessageClass) (*Discussion, error) {
	var linked *tg.Channel
	for _, raw := range chats {
		if ch, ok := raw.(*tg.Channel); ok && ch.ID != channelID {
			linked = ch
			break
		}
	}
	if linked == nil {
		return nil, errNoDiscussion
	}

	for _, raw := range messages {
		m, ok := raw.(*tg.Message)
		if !ok {
			continue
		}
		peer, ok := m.PeerID.(*tg.PeerChannel)
		if !ok || peer.ChannelID != linked.ID {
			continue
		}
		return &Discussion{Chat: linked, PostMessage: m}, nil
	}
	return nil, errNoDiscussion
}

// DiscussionSender публикует комментарий в обсуждении поста,
// а если обсуждения нет — ответом на пост в самом канале.
type DiscussionSender struct {
	api    *tg.Client
	sender *message.Sender
}

func NewDiscussionSender(api *tg.Client) *DiscussionSender {
	return &DiscussionSender{api: api, sender: message.NewSender(api)}
}

func (s *DiscussionSender) Send(ctx context.Context, post Post, text string) error {
	if post.Channel == nil {
		return fmt.Errorf("канал %s не разрешён", post.Handle)
	}

	d, err := GetPostDiscussion(ctx, s.api, post.Channel, post.MsgID)
	switch {
	case err == nil:
		peer := &tg.InputPeerChannel{ChannelID: d.Chat.ID, AccessHash: d.Chat.AccessHash}
		_, err = s.sender.To(peer).Reply(d.PostMessage.ID).Text(ctx, text)
		return err
	case errors.Is(err, errNoDiscussion), tgerr.Is(err, "MSG_ID_INVALID"):
		peer := &tg.InputPeerChannel{ChannelID: post.Channel.ID, AccessHash: post.Channel.AccessHash}
		_, err = s.sender.To(peer).Reply(post.MsgID).Text(ctx, text)
		return err
	default:
		return err
	}
}
