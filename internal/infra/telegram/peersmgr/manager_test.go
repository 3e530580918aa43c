package peersmgr

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineInvoker отклоняет любой RPC: тесты не должны ходить в сеть.
type offlineInvoker struct{}

func (offlineInvoker) Invoke(context.Context, bin.Encoder, bin.Decoder) error {
	return errors.New("offline")
}

func newTestService(t *testing.T, path string) *Service {
	t.Helper()
	s, err := New(tg.NewClient(offlineInvoker{}), path)
	require.NoError(t, err)
	return s
}

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "x.bbolt")
	assert.Error(t, err)

	_, err = New(tg.NewClient(offlineInvoker{}), "  ")
	assert.Error(t, err)
}

func TestRememberPersistsAcrossRestarts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "peers.bbolt")

	s := newTestService(t, path)
	require.NoError(t, s.LoadFromStorage(ctx))
	users := []tg.UserClass{&tg.User{ID: 10, AccessHash: 1010, Username: "alice", FirstName: "Alice"}}
	chats := []tg.ChatClass{&tg.Channel{ID: 20, AccessHash: 2020, Title: "News", Broadcast: true, Photo: &tg.ChatPhotoEmpty{}}}
	require.NoError(t, s.Remember(ctx, users, chats))
	require.NoError(t, s.Close())

	reopened := newTestService(t, path)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.LoadFromStorage(ctx))

	user, err := reopened.store.Find(ctx, contribstorage.PeerKey{Kind: dialogs.User, ID: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1010), user.Key.AccessHash)

	channel, err := reopened.store.Find(ctx, contribstorage.PeerKey{Kind: dialogs.Channel, ID: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2020), channel.Key.AccessHash)
}

func TestRememberStoresRestAfterFailedWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, filepath.Join(t.TempDir(), "peers.bbolt"))
	t.Cleanup(func() { _ = s.Close() })

	// Канал без Photo не сериализуется, пользователь и второй канал должны сохраниться.
	users := []tg.UserClass{&tg.User{ID: 10, AccessHash: 1010, Username: "alice"}}
	chats := []tg.ChatClass{
		&tg.Channel{ID: 20, AccessHash: 2020, Title: "Broken"},
		&tg.Channel{ID: 30, AccessHash: 3030, Title: "News", Photo: &tg.ChatPhotoEmpty{}},
	}

	err := s.Remember(ctx, users, chats)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store chat 20")

	user, err := s.store.Find(ctx, contribstorage.PeerKey{Kind: dialogs.User, ID: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1010), user.Key.AccessHash)

	channel, err := s.store.Find(ctx, contribstorage.PeerKey{Kind: dialogs.Channel, ID: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(3030), channel.Key.AccessHash)

	_, err = s.store.Find(ctx, contribstorage.PeerKey{Kind: dialogs.Channel, ID: 20})
	assert.ErrorIs(t, err, contribstorage.ErrPeerNotFound)

	// Менеджер в памяти знает все сущности, включая несохранённую.
	ch, err := s.Mgr.ResolveChannelID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "Broken", ch.Raw().Title)
}

func TestNormalizeDialogsResponse(t *testing.T) {
	t.Parallel()

	slice := &tg.MessagesDialogsSlice{Dialogs: []tg.DialogClass{&tg.Dialog{TopMessage: 5}}}
	got, err := normalizeDialogsResponse(slice)
	require.NoError(t, err)
	assert.Len(t, got.Dialogs, 1)

	_, err = normalizeDialogsResponse(&tg.MessagesDialogsNotModified{})
	assert.ErrorIs(t, err, errDialogsNotModified)
}

func TestDialogPeerToInput(t *testing.T) {
	t.Parallel()

	users := map[int64]int64{1: 11}
	channels := map[int64]int64{3: 33}

	assert.Equal(t, &tg.InputPeerUser{UserID: 1, AccessHash: 11}, dialogPeerToInput(&tg.PeerUser{UserID: 1}, users, channels))
	assert.Equal(t, &tg.InputPeerChat{ChatID: 2}, dialogPeerToInput(&tg.PeerChat{ChatID: 2}, users, channels))
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 3, AccessHash: 33}, dialogPeerToInput(&tg.PeerChannel{ChannelID: 3}, users, channels))
}

func TestMessageDate(t *testing.T) {
	t.Parallel()

	msgs := []tg.MessageClass{
		&tg.Message{ID: 1, Date: 100},
		&tg.MessageService{ID: 2, Date: 200},
	}
	assert.Equal(t, 100, messageDate(msgs, 1))
	assert.Equal(t, 200, messageDate(msgs, 2))
	assert.Zero(t, messageDate(msgs, 3))
}
