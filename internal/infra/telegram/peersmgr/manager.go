// Package peersmgr — gotd peers.Manager с персистентным кешем пиров на bbolt.
// Кеш переживает перезапуск: access_hash из прошлых сессий позволяют писать
// по user id и открывать чаты без лишних запросов resolve.
package peersmgr

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"telegram-messenger/internal/infra/storage"

	"github.com/go-faster/errors"
	bboltdb "github.com/gotd/contrib/bbolt"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"
	"go.uber.org/multierr"
)

const (
	peersBucketName = "peers"
	dbOpenTimeout   = time.Second
)

var peersBucketBytes = []byte(peersBucketName)

// Service объединяет bbolt-хранилище и менеджер пиров в памяти.
type Service struct {
	db    *bbolt.DB
	store contribstorage.PeerStorage
	Mgr   *peers.Manager
}

// New открывает кеш пиров по dbPath. Сетевых запросов не делает.
func New(api *tg.Client, dbPath string) (*Service, error) {
	if api == nil {
		return nil, errors.New("peersmgr: api client is nil")
	}
	path := strings.TrimSpace(dbPath)
	if path == "" {
		return nil, errors.New("peersmgr: db path is empty")
	}
	if err := storage.EnsureDir(path); err != nil {
		return nil, errors.Wrap(err, "peersmgr")
	}

	db, err := bbolt.Open(path, storage.PrivateFilePerm, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, errors.Wrap(err, "peersmgr: open db")
	}

	return &Service{
		db:    db,
		store: bboltdb.NewPeerStorage(db, peersBucketBytes),
		Mgr:   (peers.Options{}).Build(api),
	}, nil
}

func (s *Service) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpdateHook оборачивает обработчик апдейтов: сущности из апдейтов попадают
// и в менеджер, и в bbolt.
func (s *Service) UpdateHook(next telegram.UpdateHandler) telegram.UpdateHandler {
	return contribstorage.UpdateHook(s.Mgr.UpdateHook(next), s.store)
}

// LoadFromStorage переносит сохранённые пиры из bbolt в менеджер.
// Повреждённый бакет пересоздаётся пустым.
func (s *Service) LoadFromStorage(ctx context.Context) error {
	iter, exists, err := s.iterateStoredPeers(ctx)
	if err != nil {
		if isJSONUnmarshalError(err) {
			return s.resetPeersBucket()
		}
		return errors.Wrap(err, "peersmgr: iterate stored peers")
	}
	if !exists {
		return nil
	}
	defer func() { _ = iter.Close() }()

	var (
		users []tg.UserClass
		chats []tg.ChatClass
	)
	for iter.Next(ctx) {
		value := iter.Value()
		switch value.Key.Kind {
		case dialogs.User:
			if value.User != nil {
				users = append(users, value.User)
			} else {
				users = append(users, &tg.User{ID: value.Key.ID, AccessHash: value.Key.AccessHash})
			}
		case dialogs.Chat:
			if value.Chat != nil {
				chats = append(chats, value.Chat)
			} else {
				chats = append(chats, &tg.Chat{ID: value.Key.ID})
			}
		case dialogs.Channel:
			if value.Channel != nil {
				chats = append(chats, value.Channel)
			} else {
				chats = append(chats, &tg.Channel{ID: value.Key.ID, AccessHash: value.Key.AccessHash})
			}
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "peersmgr: iterate stored peers")
	}
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	return s.Mgr.Apply(ctx, users, chats)
}

// Remember кладёт сущности из ответа API в менеджер и в bbolt.
// Менеджер в памяти остаётся источником истины для сессии: сбой записи одной
// сущности не мешает сохранить остальные, все ошибки возвращаются вместе.
func (s *Service) Remember(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) error {
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	if err := s.Mgr.Apply(ctx, users, chats); err != nil {
		return errors.Wrap(err, "peersmgr: apply entities")
	}
	var err error
	for _, u := range users {
		var p contribstorage.Peer
		if !p.FromUser(u) {
			continue
		}
		if addErr := s.store.Add(ctx, p); addErr != nil {
			err = multierr.Append(err, errors.Wrapf(addErr, "peersmgr: store user %d", u.GetID()))
		}
	}
	for _, c := range chats {
		var p contribstorage.Peer
		if !p.FromChat(c) {
			continue
		}
		if addErr := s.store.Add(ctx, p); addErr != nil {
			err = multierr.Append(err, errors.Wrapf(addErr, "peersmgr: store chat %d", c.GetID()))
		}
	}
	return err
}

// Resolve находит собеседника по строке ввода (см. ParseRef).
func (s *Service) Resolve(ctx context.Context, input string) (peers.Peer, error) {
	ref, err := ParseRef(input)
	if err != nil {
		return nil, err
	}
	return s.ResolveRef(ctx, ref)
}

func (s *Service) ResolveRef(ctx context.Context, ref Ref) (peers.Peer, error) {
	switch ref.Kind {
	case RefSelf:
		return s.Mgr.Self(ctx)
	case RefDomain:
		return s.Mgr.ResolveDomain(ctx, ref.Domain)
	case RefLink:
		return s.Mgr.Resolve(ctx, ref.Link)
	case RefPhone:
		return s.Mgr.ResolvePhone(ctx, ref.Phone)
	case RefUserID:
		return s.Mgr.ResolveUserID(ctx, ref.ID)
	case RefChatID:
		return s.Mgr.ResolveChatID(ctx, ref.ID)
	case RefChannelID:
		return s.Mgr.ResolveChannelID(ctx, ref.ID)
	default:
		return nil, errors.Errorf("peersmgr: unsupported ref kind %d", ref.Kind)
	}
}

// ResolvePeer находит пира по tg.PeerClass из сообщения или апдейта.
func (s *Service) ResolvePeer(ctx context.Context, peer tg.PeerClass) (peers.Peer, error) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return s.Mgr.ResolveUserID(ctx, p.UserID)
	case *tg.PeerChat:
		return s.Mgr.ResolveChatID(ctx, p.ChatID)
	case *tg.PeerChannel:
		return s.Mgr.ResolveChannelID(ctx, p.ChannelID)
	default:
		return nil, errors.Errorf("peersmgr: unsupported peer type %T", peer)
	}
}

// IsNotFound сообщает, что пир не найден ни в кеше, ни на сервере.
func IsNotFound(err error) bool {
	var nf *peers.PeerNotFoundError
	return errors.As(err, &nf)
}

func (s *Service) iterateStoredPeers(ctx context.Context) (contribstorage.PeerIterator, bool, error) {
	exists := false
	if err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(peersBucketBytes) != nil
		return nil
	}); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	iter, err := s.store.Iterate(ctx)
	if err != nil {
		return nil, false, err
	}
	return iter, true, nil
}

func isJSONUnmarshalError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr)
}

func (s *Service) resetPeersBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(peersBucketBytes); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(peersBucketBytes)
		return err
	})
}
