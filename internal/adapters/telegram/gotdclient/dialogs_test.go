package gotdclient

import (
	"testing"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/telegram/peersmgr"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeDialogs(t *testing.T) {
	t.Parallel()

	d := &peersmgr.Dialogs{
		Dialogs: []tg.DialogClass{
			&tg.Dialog{Peer: &tg.PeerUser{UserID: 1}},
			&tg.Dialog{Peer: &tg.PeerChat{ChatID: 2}},
			&tg.Dialog{Peer: &tg.PeerChannel{ChannelID: 3}},
			&tg.Dialog{Peer: &tg.PeerUser{UserID: 4}},
			&tg.DialogFolder{},
		},
		Users: []tg.UserClass{
			&tg.User{ID: 1, FirstName: "Alice", LastName: "Smith", Username: "alice"},
		},
		Chats: []tg.ChatClass{
			&tg.Chat{ID: 2, Title: "Family"},
			&tg.Channel{ID: 3, Title: "News", Username: "news", Broadcast: true},
		},
	}

	got := summarizeDialogs(d)

	assert.Equal(t, []chat.ChatSummary{
		{ID: 1, Name: "Alice Smith", Username: "alice", Type: chat.PeerUser},
		{ID: 2, Name: "Family", Type: chat.PeerGroup},
		{ID: 3, Name: "News", Username: "news", Type: chat.PeerChannel},
		{ID: 4, Name: "Unknown", Type: chat.PeerUnknown},
	}, got)
}
