package gotdclient

import (
	"context"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
)

// GetEntity ищет пользователя, чат или канал по строке (@username, ссылка, id, телефон).
func (c *Client) GetEntity(ctx context.Context, identifier string) (chat.EntityInfo, error) {
	peer, err := c.peers.Resolve(ctx, identifier)
	if err != nil {
		return chat.EntityInfo{}, classify(errors.Wrapf(err, "resolve %q", identifier))
	}
	switch p := peer.(type) {
	case peers.User:
		return userEntity(p.Raw()), nil
	case peers.Chat:
		return chatEntity(p.Raw()), nil
	case peers.Channel:
		return channelEntity(p.Raw()), nil
	default:
		return chat.EntityInfo{}, chat.Other(errors.Errorf("unexpected peer %T", peer))
	}
}

func userEntity(u *tg.User) chat.EntityInfo {
	return chat.EntityInfo{
		ID:         u.ID,
		Type:       "User",
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Phone:      u.Phone,
		Bot:        flag(u.Bot),
		Verified:   flag(u.Verified),
		Restricted: flag(u.Restricted),
		Scam:       flag(u.Scam),
		Fake:       flag(u.Fake),
	}
}

// У базовых групп нет ни username, ни флагов проверки.
func chatEntity(c *tg.Chat) chat.EntityInfo {
	return chat.EntityInfo{ID: c.ID, Type: "Chat"}
}

func channelEntity(c *tg.Channel) chat.EntityInfo {
	return chat.EntityInfo{
		ID:         c.ID,
		Type:       "Channel",
		Username:   c.Username,
		Verified:   flag(c.Verified),
		Restricted: flag(c.Restricted),
		Scam:       flag(c.Scam),
		Fake:       flag(c.Fake),
	}
}

func flag(v bool) *bool { return &v }
