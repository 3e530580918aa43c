// Package storage — запись локальных файлов клиента (сессия, кеши) без частичных состояний.
package storage

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// PrivateFilePerm — права файлов с секретами: сессия содержит ключ авторизации.
const PrivateFilePerm os.FileMode = 0o600

// EnsureDir создаёт каталог файла path (0o700). Для путей без каталога ничего не делает.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "create dir %s", dir)
	}
	return nil
}

// AtomicWriteFile пишет data во временный файл рядом с path и переименовывает его поверх path.
// Читатель видит либо старое содержимое, либо новое целиком.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) (err error) {
	clean := filepath.Clean(path)
	if err := EnsureDir(clean); err != nil {
		return err
	}
	dir := filepath.Dir(clean)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(clean)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "fsync temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, clean); err != nil {
		return errors.Wrap(err, "rename temp file")
	}

	// fsync каталога: на части ФС не поддерживается, ошибку не поднимаем.
	if d, openErr := os.Open(dir); openErr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
