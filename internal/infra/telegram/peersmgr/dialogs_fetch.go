package peersmgr

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

// dialogPageLimit — максимум диалогов, который сервер отдаёт за один запрос.
const dialogPageLimit = 100

var errDialogsNotModified = errors.New("dialogs not modified")

// Dialogs — первые limit диалогов вместе с сущностями и верхними сообщениями.
type Dialogs struct {
	Dialogs  []tg.DialogClass
	Messages []tg.MessageClass
	Users    []tg.UserClass
	Chats    []tg.ChatClass
}

// FetchDialogs выгружает до limit последних диалогов постранично
// (offset_date, offset_id, offset_peer) и запоминает их сущности.
func (s *Service) FetchDialogs(ctx context.Context, limit int) (*Dialogs, error) {
	if limit <= 0 {
		return nil, errors.Errorf("peersmgr: invalid dialogs limit %d", limit)
	}
	api := s.Mgr.API()
	result := &Dialogs{}

	var (
		offsetDate int
		offsetID   int
		offsetPeer tg.InputPeerClass = &tg.InputPeerEmpty{}
	)
	userHashes := make(map[int64]int64)
	channelHashes := make(map[int64]int64)

	for len(result.Dialogs) < limit {
		pageLimit := min(limit-len(result.Dialogs), dialogPageLimit)
		resp, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetDate: offsetDate,
			OffsetID:   offsetID,
			OffsetPeer: offsetPeer,
			Limit:      pageLimit,
		})
		if err != nil {
			return nil, errors.Wrap(err, "get dialogs")
		}

		batch, err := normalizeDialogsResponse(resp)
		if errors.Is(err, errDialogsNotModified) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(batch.Dialogs) == 0 {
			break
		}

		result.Dialogs = append(result.Dialogs, batch.Dialogs...)
		result.Messages = append(result.Messages, batch.Messages...)
		result.Users = append(result.Users, batch.Users...)
		result.Chats = append(result.Chats, batch.Chats...)
		updateHashesFromBatch(batch, userHashes, channelHashes)

		if len(batch.Dialogs) < pageLimit {
			break
		}
		if d, ok := batch.Dialogs[len(batch.Dialogs)-1].(*tg.Dialog); ok {
			offsetID = d.TopMessage
			if date := messageDate(batch.Messages, d.TopMessage); date != 0 {
				offsetDate = date
			}
			offsetPeer = dialogPeerToInput(d.Peer, userHashes, channelHashes)
		} else {
			break
		}
	}

	if len(result.Dialogs) > limit {
		result.Dialogs = result.Dialogs[:limit]
	}
	if err := s.Remember(ctx, result.Users, result.Chats); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeDialogsResponse(resp tg.MessagesDialogsClass) (*tg.MessagesDialogs, error) {
	switch data := resp.(type) {
	case *tg.MessagesDialogs:
		return data, nil
	case *tg.MessagesDialogsSlice:
		return &tg.MessagesDialogs{
			Dialogs:  data.Dialogs,
			Messages: data.Messages,
			Chats:    data.Chats,
			Users:    data.Users,
		}, nil
	case *tg.MessagesDialogsNotModified:
		return nil, errDialogsNotModified
	default:
		return nil, errors.Errorf("unexpected dialogs response: %T", resp)
	}
}

func updateHashesFromBatch(batch *tg.MessagesDialogs, userHashes, channelHashes map[int64]int64) {
	for _, entity := range batch.Users {
		if user, ok := entity.(*tg.User); ok {
			userHashes[user.ID] = user.AccessHash
		}
	}
	for _, entity := range batch.Chats {
		if channel, ok := entity.(*tg.Channel); ok {
			channelHashes[channel.ID] = channel.AccessHash
		}
	}
}

func messageDate(messages []tg.MessageClass, id int) int {
	for _, msg := range messages {
		switch item := msg.(type) {
		case *tg.Message:
			if item.ID == id {
				return item.Date
			}
		case *tg.MessageService:
			if item.ID == id {
				return item.Date
			}
		}
	}
	return 0
}

func dialogPeerToInput(peer tg.PeerClass, userHashes, channelHashes map[int64]int64) tg.InputPeerClass {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return &tg.InputPeerUser{UserID: p.UserID, AccessHash: userHashes[p.UserID]}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ChannelID, AccessHash: channelHashes[p.ChannelID]}
	default:
		return &tg.InputPeerEmpty{}
	}
}
