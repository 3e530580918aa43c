package gotdclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// GetMessage читает одно сообщение; (nil, nil), если его нет или оно удалено.
func (c *Client) GetMessage(ctx context.Context, chatRef string, id int) (*chat.Message, error) {
	if id <= 0 {
		return nil, chat.Other(errors.Errorf("invalid message id %d", id))
	}
	peer, err := c.peers.Resolve(ctx, chatRef)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "resolve chat %q", chatRef))
	}

	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: id}}
	var resp tg.MessagesMessagesClass
	if ch, ok := peer.InputPeer().(*tg.InputPeerChannel); ok {
		resp, err = c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: ch.ChannelID, AccessHash: ch.AccessHash},
			ID:      ids,
		})
	} else {
		resp, err = c.api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, classify(errors.Wrap(err, "get messages"))
	}

	msgs, users, chats := unpackMessages(resp)
	if err := c.peers.Remember(ctx, users, chats); err != nil {
		c.log.Debug("Failed to remember message entities", zap.Error(err))
	}
	for _, m := range msgs {
		msg, ok := m.(*tg.Message)
		if !ok || msg.ID != id {
			continue
		}
		// messages.getMessages ищет id по всему аккаунту, а не в одном чате.
		if !peerMatches(msg.PeerID, peer) {
			c.log.Debug("Message belongs to another chat",
				zap.Int("id", id), zap.Int64("peer_id", peerID(msg.PeerID)))
			return nil, nil
		}
		return convertMessage(msg), nil
	}
	return nil, nil
}

// peerMatches сообщает, что p указывает на ту же сущность, что want.
func peerMatches(p tg.PeerClass, want peers.Peer) bool {
	switch v := p.(type) {
	case *tg.PeerUser:
		_, ok := want.(peers.User)
		return ok && v.UserID == want.ID()
	case *tg.PeerChat:
		_, ok := want.(peers.Chat)
		return ok && v.ChatID == want.ID()
	case *tg.PeerChannel:
		_, ok := want.(peers.Channel)
		return ok && v.ChannelID == want.ID()
	default:
		return false
	}
}

func unpackMessages(resp tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.UserClass, []tg.ChatClass) {
	switch r := resp.(type) {
	case *tg.MessagesMessages:
		return r.Messages, r.Users, r.Chats
	case *tg.MessagesMessagesSlice:
		return r.Messages, r.Users, r.Chats
	case *tg.MessagesChannelMessages:
		return r.Messages, r.Users, r.Chats
	default:
		return nil, nil, nil
	}
}

func convertMessage(m *tg.Message) *chat.Message {
	out := &chat.Message{
		ID:     m.ID,
		Date:   time.Unix(int64(m.Date), 0).UTC(),
		Text:   m.Message,
		PeerID: describe(m.PeerID),
		Raw:    m,
	}
	if from, ok := m.GetFromID(); ok {
		out.FromID = describe(from)
	}
	if fwd, ok := m.GetFwdFrom(); ok {
		out.FwdFrom = describe(&fwd)
	}
	if via, ok := m.GetViaBotID(); ok {
		out.ViaBotID = via
	}
	if reply, ok := m.GetReplyTo(); ok {
		out.ReplyTo = describe(reply)
	}
	if media, ok := m.GetMedia(); ok {
		out.Media = typeName(media)
	}
	if entities, ok := m.GetEntities(); ok {
		out.Entities = make([]string, 0, len(entities))
		for _, e := range entities {
			out.Entities = append(out.Entities, describe(e))
		}
	}
	if views, ok := m.GetViews(); ok {
		out.Views = views
	}
	if edit, ok := m.GetEditDate(); ok {
		out.EditDate = time.Unix(int64(edit), 0).UTC()
	}
	return out
}

// describe — текстовое представление TL-объекта (String() у типов tg).
func describe(v fmt.Stringer) string {
	if v == nil {
		return ""
	}
	return v.String()
}

// typeName — имя TL-конструктора в Go-виде, например MessageMediaPhoto.
func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*tg.")
}
