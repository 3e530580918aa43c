package gotdclient

import (
	"context"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/peers"
	tgupdates "github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

var errMonitorActive = errors.New("monitor already running")

// Monitor передаёт новые сообщения из всех чатов в onMessage, пока не отменён ctx.
// Отмена ctx — штатное завершение, ошибка при этом не возвращается.
func (c *Client) Monitor(ctx context.Context, onMessage func(chat.IncomingMessage)) error {
	c.mu.Lock()
	if c.monitoring {
		c.mu.Unlock()
		return chat.Other(errMonitorActive)
	}
	c.monitoring = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.monitoring = false
		c.mu.Unlock()
	}()

	self, err := c.client.Self(ctx)
	if err != nil {
		return classify(errors.Wrap(err, "get self"))
	}

	dispatcher := tg.NewUpdateDispatcher()
	deliver := func(ctx context.Context, e tg.Entities, m tg.MessageClass) {
		msg, ok := m.(*tg.Message)
		if !ok {
			return
		}
		in := incomingFromMessage(msg, c.completeEntities(ctx, e, msg))
		c.log.Debug("New message", zap.Int64("sender_id", in.SenderID), zap.String("chat", in.ChatName))
		onMessage(in)
	}
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		deliver(ctx, e, u.Message)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		deliver(ctx, e, u.Message)
		return nil
	})

	updMgr := tgupdates.New(tgupdates.Config{
		Handler:      dispatcher,
		Storage:      c.state,
		AccessHasher: c.peers.Mgr,
		Logger:       c.log.Named("updates").WithOptions(zap.IncreaseLevel(zap.WarnLevel)),
	})
	c.handler.set(c.peers.UpdateHook(updMgr))
	defer c.handler.set(c.peers.UpdateHook(nopUpdates))

	err = updMgr.Run(ctx, c.api, self.ID, tgupdates.AuthOptions{
		OnStart: func(context.Context) { c.log.Info("Monitoring started") },
	})
	if ctx.Err() != nil {
		c.log.Info("Monitoring stopped")
		return nil
	}
	if err != nil {
		return classify(errors.Wrap(err, "updates"))
	}
	return nil
}

// completeEntities дополняет сущности апдейта через кеш пиров: короткие апдейты
// (updateShortMessage) приходят без users и chats.
func (c *Client) completeEntities(ctx context.Context, e tg.Entities, msg *tg.Message) tg.Entities {
	out := tg.Entities{
		Short:    e.Short,
		Users:    make(map[int64]*tg.User, len(e.Users)),
		Chats:    make(map[int64]*tg.Chat, len(e.Chats)),
		Channels: make(map[int64]*tg.Channel, len(e.Channels)),
	}
	for id, u := range e.Users {
		out.Users[id] = u
	}
	for id, ch := range e.Chats {
		out.Chats[id] = ch
	}
	for id, ch := range e.Channels {
		out.Channels[id] = ch
	}

	wanted := []tg.PeerClass{msg.PeerID}
	if from, ok := msg.GetFromID(); ok {
		wanted = append(wanted, from)
	}
	for _, p := range wanted {
		if p == nil || hasEntity(out, p) {
			continue
		}
		resolved, err := c.peers.ResolvePeer(ctx, p)
		if err != nil {
			c.log.Debug("Failed to resolve message peer", zap.Int64("peer_id", peerID(p)), zap.Error(err))
			continue
		}
		switch v := resolved.(type) {
		case peers.User:
			out.Users[v.ID()] = v.Raw()
		case peers.Chat:
			out.Chats[v.ID()] = v.Raw()
		case peers.Channel:
			out.Channels[v.ID()] = v.Raw()
		}
	}
	return out
}

func hasEntity(e tg.Entities, p tg.PeerClass) bool {
	switch v := p.(type) {
	case *tg.PeerUser:
		_, ok := e.Users[v.UserID]
		return ok
	case *tg.PeerChat:
		_, ok := e.Chats[v.ChatID]
		return ok
	case *tg.PeerChannel:
		_, ok := e.Channels[v.ChannelID]
		return ok
	default:
		return true
	}
}

// incomingFromMessage собирает событие мониторинга. Отправитель — from_id,
// а при его отсутствии (личка, канал) — сам чат.
func incomingFromMessage(msg *tg.Message, e tg.Entities) chat.IncomingMessage {
	sender := msg.PeerID
	if from, ok := msg.GetFromID(); ok {
		sender = from
	}
	return chat.IncomingMessage{
		SenderID:   peerID(sender),
		SenderName: senderName(sender, e),
		ChatName:   chatName(msg.PeerID, e),
		Text:       msg.Message,
	}
}

func senderName(p tg.PeerClass, e tg.Entities) string {
	switch v := p.(type) {
	case *tg.PeerUser:
		if u, ok := e.Users[v.UserID]; ok {
			if u.Username != "" {
				return u.Username
			}
			if u.FirstName != "" {
				return u.FirstName
			}
		}
	case *tg.PeerChannel:
		if ch, ok := e.Channels[v.ChannelID]; ok && ch.Username != "" {
			return ch.Username
		}
	}
	return "Unknown"
}

func chatName(p tg.PeerClass, e tg.Entities) string {
	switch v := p.(type) {
	case *tg.PeerUser:
		if u, ok := e.Users[v.UserID]; ok && u.Username != "" {
			return u.Username
		}
	case *tg.PeerChat:
		if ch, ok := e.Chats[v.ChatID]; ok && ch.Title != "" {
			return ch.Title
		}
	case *tg.PeerChannel:
		if ch, ok := e.Channels[v.ChannelID]; ok {
			if ch.Title != "" {
				return ch.Title
			}
			if ch.Username != "" {
				return ch.Username
			}
		}
	}
	return "Direct Message"
}

func peerID(p tg.PeerClass) int64 {
	switch v := p.(type) {
	case *tg.PeerUser:
		return v.UserID
	case *tg.PeerChat:
		return v.ChatID
	case *tg.PeerChannel:
		return v.ChannelID
	default:
		return 0
	}
}
