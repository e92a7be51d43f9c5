package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
)

type memUsers struct {
	mu     sync.Mutex
	byID   map[domain.UserID]*domain.User
	nextID domain.UserID
	fail   error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[domain.UserID]*domain.User{}}
}

func (r *memUsers) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.byID {
		if x.Email == u.Email {
			return 0, repository.ErrAlreadyExists
		}
	}
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	r.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memUsers) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	for _, u := range r.byID {
		if u.Email == domain.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memUsers) TouchLastLogin(_ context.Context, id domain.UserID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TouchLogin(now)
	return nil
}

type memWorkspaces struct {
	mu     sync.Mutex
	byUser map[domain.UserID]*domain.Workspace
}

func newMemWorkspaces() *memWorkspaces {
	return &memWorkspaces{byUser: map[domain.UserID]*domain.Workspace{}}
}

func (r *memWorkspaces) Create(_ context.Context, w *domain.Workspace) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[w.UserID]; ok {
		return 0, repository.ErrAlreadyExists
	}
	cp := *w
	cp.ID = int64(len(r.byUser) + 1)
	r.byUser[w.UserID] = &cp
	return cp.ID, nil
}

func (r *memWorkspaces) GetByUser(_ context.Context, userID domain.UserID) (*domain.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWorkspaces) Update(_ context.Context, w *domain.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[w.UserID]; !ok {
		return repository.ErrNotFound
	}
	cp := *w
	r.byUser[w.UserID] = &cp
	return nil
}

// memTx не откатывает изменения, тестам достаточно прохода по репозиториям
type memTx struct {
	users      *memUsers
	workspaces *memWorkspaces
}

func (m memTx) Users() repository.UserRepository           { return m.users }
func (m memTx) Workspaces() repository.WorkspaceRepository { return m.workspaces }

func (m memTx) WithinTx(_ context.Context, fn func(tx repository.Tx) error) error {
	return fn(m)
}

type memMedia struct {
	mu     sync.Mutex
	assets []domain.MediaAsset
	fail   error
}

func (r *memMedia) Create(_ context.Context, a *domain.MediaAsset) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return 0, r.fail
	}
	cp := *a
	cp.ID = int64(len(r.assets) + 1)
	r.assets = append(r.assets, cp)
	return cp.ID, nil
}

func (r *memMedia) ListByUser(_ context.Context, userID domain.UserID) ([]domain.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MediaAsset
	for i := len(r.assets) - 1; i >= 0; i-- {
		if r.assets[i].UserID == userID {
			out = append(out, r.assets[i])
		}
	}
	return out, nil
}

type memBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (b *memBlobs) Save(_ context.Context, name string, r io.Reader, maxBytes int64) (int64, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return 0, err
	}
	if int64(len(data)) > maxBytes {
		return 0, errTooLargeForTest
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.files == nil {
		b.files = map[string][]byte{}
	}
	b.files[name] = data
	return int64(len(data)), nil
}

func (b *memBlobs) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, name)
	return nil
}

func (b *memBlobs) URL(name string) string { return "/uploads/" + name }
