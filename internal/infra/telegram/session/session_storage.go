// Package session хранит MTProto-сессию gotd в файле.
package session

import (
	"context"
	"os"
	"sync"

	"telegram-messenger/internal/infra/storage"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"
)

// FileStorage реализует tdsession.Storage поверх одного файла с атомарной записью.
// OnStore, если задан, вызывается после каждой успешной записи: gotd сохраняет
// сессию после входа и смены ключей.
type FileStorage struct {
	Path    string
	OnStore func()

	mux sync.Mutex
}

var _ tdsession.Storage = (*FileStorage)(nil)

// LoadSession возвращает tdsession.ErrNotFound, если файла ещё нет.
func (f *FileStorage) LoadSession(_ context.Context) ([]byte, error) {
	if f == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	defer f.mux.Unlock()

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil, tdsession.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read session")
	}
	return data, nil
}

func (f *FileStorage) StoreSession(_ context.Context, data []byte) error {
	if f == nil {
		return errors.New("nil session storage is invalid")
	}
	f.mux.Lock()
	err := storage.AtomicWriteFile(f.Path, data, storage.PrivateFilePerm)
	f.mux.Unlock()
	if err != nil {
		return errors.Wrap(err, "store session")
	}
	if f.OnStore != nil {
		f.OnStore()
	}
	return nil
}
