// Package memory: репозитории в памяти процесса. Используются для
// локального запуска без postgres (-store=memory) и в тестах транспорта.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"

	"github.com/samber/lo"
)

type Store struct {
	Users      *Users
	Workspaces *Workspaces
	Chat       *Chat
	Media      *Media

	txMu sync.Mutex
}

func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Users:      &Users{byID: map[domain.UserID]*domain.User{}},
		Workspaces: &Workspaces{byUser: map[domain.UserID]*domain.Workspace{}},
		Chat:       &Chat{now: now},
		Media:      &Media{},
	}
}

// WithinTx сериализует транзакции; отката нет, fn должна проверять всё до записи
func (s *Store) WithinTx(_ context.Context, fn func(tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(tx{s})
}

type tx struct{ s *Store }

func (t tx) Users() repository.UserRepository           { return t.s.Users }
func (t tx) Workspaces() repository.WorkspaceRepository { return t.s.Workspaces }

// --- users ---

type Users struct {
	mu     sync.RWMutex
	byID   map[domain.UserID]*domain.User
	nextID domain.UserID
}

func (r *Users) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
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

func (r *Users) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := lo.Find(lo.Values(r.byID), func(u *domain.User) bool { return u.Email == email })
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Users) TouchLastLogin(_ context.Context, id domain.UserID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TouchLogin(now)
	return nil
}

// --- workspaces ---

type Workspaces struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]*domain.Workspace
	nextID int64
}

func (r *Workspaces) Create(_ context.Context, w *domain.Workspace) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[w.UserID]; ok {
		return 0, repository.ErrAlreadyExists
	}
	r.nextID++
	cp := *w
	cp.ID = r.nextID
	r.byUser[w.UserID] = &cp
	return cp.ID, nil
}

func (r *Workspaces) GetByUser(_ context.Context, userID domain.UserID) (*domain.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *Workspaces) Update(_ context.Context, w *domain.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[w.UserID]; !ok {
		return repository.ErrNotFound
	}
	cp := *w
	r.byUser[w.UserID] = &cp
	return nil
}

// --- chat ---

// Chat выдаёт id и created_at под одной блокировкой, как последовательность в БД
type Chat struct {
	mu   sync.RWMutex
	rows []domain.ChatMessage
	now  func() time.Time
	fail error
}

// SetFailure заставляет Append и Recent возвращать err (nil: снять)
func (r *Chat) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *Chat) Append(ctx context.Context, d domain.ChatDraft) (domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatMessage{}, repository.ErrStoreUnavailable
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return domain.ChatMessage{}, r.fail
	}
	m := domain.ChatMessage{
		ID:         int64(len(r.rows) + 1),
		AuthorID:   d.AuthorID,
		AuthorName: d.AuthorName,
		Channel:    d.Channel,
		Content:    d.Content,
		CreatedAt:  r.now().UTC(),
	}
	r.rows = append(r.rows, m)
	return m, nil
}

func (r *Chat) Recent(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.ErrStoreUnavailable
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.fail != nil {
		return nil, r.fail
	}
	out := lo.Filter(r.rows, func(m domain.ChatMessage, _ int) bool { return m.Channel == channel })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return slices.Clone(out), nil
}

// --- media ---

type Media struct {
	mu     sync.RWMutex
	assets []domain.MediaAsset
}

func (r *Media) Create(_ context.Context, a *domain.MediaAsset) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.ID = int64(len(r.assets) + 1)
	r.assets = append(r.assets, cp)
	return cp.ID, nil
}

func (r *Media) ListByUser(_ context.Context, userID domain.UserID) ([]domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := lo.Filter(r.assets, func(a domain.MediaAsset, _ int) bool { return a.UserID == userID })
	slices.Reverse(out)
	return out, nil
}
