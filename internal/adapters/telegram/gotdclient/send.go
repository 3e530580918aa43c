package gotdclient

import (
	"context"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/telegram/peersmgr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/peers"
	"go.uber.org/zap"
)

// Send выполняет ровно одну попытку отправки. FLOOD_WAIT не ждёт, а возвращает
// как chat.RateLimitSignal: повторами управляет delivery.
func (c *Client) Send(ctx context.Context, to chat.Recipient, text string) error {
	peer, err := c.resolveRecipient(ctx, to)
	if err != nil {
		return err
	}
	if _, err := c.sender.To(peer.InputPeer()).Text(ctx, text); err != nil {
		return classify(errors.Wrap(err, "send message"))
	}
	c.log.Debug("message sent", zap.Stringer("recipient", to), zap.Int64("peer_id", peer.ID()))
	return nil
}

func recipientRef(to chat.Recipient) (peersmgr.Ref, error) {
	if name, ok := to.Username(); ok {
		return peersmgr.ParseRef(name)
	}
	if phone, ok := to.Phone(); ok {
		return peersmgr.Ref{Kind: peersmgr.RefPhone, Phone: phone}, nil
	}
	if id, ok := to.UserID(); ok {
		return peersmgr.Ref{Kind: peersmgr.RefUserID, ID: id}, nil
	}
	return peersmgr.Ref{}, errors.New("recipient is not set")
}

func (c *Client) resolveRecipient(ctx context.Context, to chat.Recipient) (peers.Peer, error) {
	ref, err := recipientRef(to)
	if err != nil {
		return nil, chat.Other(err)
	}
	peer, err := c.peers.ResolveRef(ctx, ref)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "resolve %s", to))
	}
	return peer, nil
}
