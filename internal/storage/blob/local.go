// Package blob хранит загруженные файлы на локальном диске и отдаёт их публичный URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/errs"
)

var ErrBadName = errors.New("blob: invalid object name")

type Local struct {
	dir    string
	prefix string
}

// NewLocal создаёт каталог dir, если его нет. prefix: публичный путь, напр. /uploads
func NewLocal(dir, prefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: mkdir %s: %w", dir, err)
	}
	return &Local{dir: dir, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

// Save пишет не более maxBytes байт. Больше: файл удаляется, ErrTooLarge.
func (l *Local) Save(ctx context.Context, name string, r io.Reader, maxBytes int64) (int64, error) {
	if !validName(name) {
		return 0, ErrBadName
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("blob: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, io.LimitReader(r, maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("blob: write: %w", err)
	}
	if n > maxBytes {
		return 0, errs.ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, name)); err != nil {
		return 0, fmt.Errorf("blob: rename: %w", err)
	}
	return n, nil
}

// Remove удаляет сохранённый объект. Отсутствующий файл не ошибка.
func (l *Local) Remove(name string) error {
	if !validName(name) {
		return ErrBadName
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob: remove: %w", err)
	}
	return nil
}

func validName(name string) bool {
	return name != "" && filepath.Base(name) == name && !strings.HasPrefix(name, ".")
}

func (l *Local) URL(name string) string {
	return path.Join(l.prefix, name)
}
