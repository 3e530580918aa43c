package gotdclient

import (
	"context"
	"strings"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/telegram/peersmgr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

func (c *Client) ListRecentChats(ctx context.Context, limit int) ([]chat.ChatSummary, error) {
	if limit <= 0 {
		return nil, chat.Other(errors.Errorf("invalid limit %d", limit))
	}
	d, err := c.peers.FetchDialogs(ctx, limit)
	if err != nil {
		return nil, classify(errors.Wrap(err, "list dialogs"))
	}
	return summarizeDialogs(d), nil
}

// summarizeDialogs превращает ответ messages.getDialogs в строки списка.
// Супергруппы, как и каналы, приходят типом tg.Channel и помечаются Channel.
func summarizeDialogs(d *peersmgr.Dialogs) []chat.ChatSummary {
	users := make(map[int64]*tg.User, len(d.Users))
	for _, u := range d.Users {
		if user, ok := u.(*tg.User); ok {
			users[user.ID] = user
		}
	}
	chats := make(map[int64]tg.ChatClass, len(d.Chats))
	for _, ch := range d.Chats {
		chats[ch.GetID()] = ch
	}

	out := make([]chat.ChatSummary, 0, len(d.Dialogs))
	for _, dlg := range d.Dialogs {
		dialog, ok := dlg.(*tg.Dialog)
		if !ok {
			continue
		}
		s := chat.ChatSummary{Type: chat.PeerUnknown}
		switch p := dialog.Peer.(type) {
		case *tg.PeerUser:
			s.ID = p.UserID
			if u, ok := users[p.UserID]; ok {
				s.Name = userDisplayName(u)
				s.Username = u.Username
				s.Type = chat.PeerUser
			}
		case *tg.PeerChat:
			s.ID = p.ChatID
			s.Name, s.Username, s.Type = describeChat(chats[p.ChatID])
		case *tg.PeerChannel:
			s.ID = p.ChannelID
			s.Name, s.Username, s.Type = describeChat(chats[p.ChannelID])
		}
		if s.Name == "" {
			s.Name = "Unknown"
		}
		out = append(out, s)
	}
	return out
}

func describeChat(c tg.ChatClass) (name, username string, typ chat.PeerType) {
	switch v := c.(type) {
	case *tg.Chat:
		return v.Title, "", chat.PeerGroup
	case *tg.ChatForbidden:
		return v.Title, "", chat.PeerGroup
	case *tg.Channel:
		return v.Title, v.Username, chat.PeerChannel
	case *tg.ChannelForbidden:
		return v.Title, "", chat.PeerChannel
	default:
		return "", "", chat.PeerUnknown
	}
}

func userDisplayName(u *tg.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
