package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
)

var connSeq atomic.Int64

type fakeConn struct {
	id string

	mu       sync.Mutex
	frames   [][]byte
	failSend bool
	closes   int
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: "c" + strconv.FormatInt(connSeq.Add(1), 10)}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errs.ErrConnectionLost
	}
	c.frames = append(c.frames, payload)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) views() []MessageView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MessageView, 0, len(c.frames))
	for _, f := range c.frames {
		var v MessageView
		if err := json.Unmarshal(f, &v); err != nil {
			panic(err)
		}
		out = append(out, v)
	}
	return out
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []domain.ChatMessage
	fail      error
	lastLimit int
}

func (s *fakeStore) Append(_ context.Context, d domain.ChatDraft) (domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return domain.ChatMessage{}, s.fail
	}
	m := domain.ChatMessage{
		ID:         int64(len(s.rows) + 1),
		AuthorID:   d.AuthorID,
		AuthorName: d.AuthorName,
		Channel:    d.Channel,
		Content:    d.Content,
		CreatedAt:  time.Now(),
	}
	s.rows = append(s.rows, m)
	return m, nil
}

func (s *fakeStore) Recent(_ context.Context, channel string, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	if s.fail != nil {
		return nil, s.fail
	}
	var out []domain.ChatMessage
	for _, m := range s.rows {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakeVerifier struct {
	mu     sync.Mutex
	tokens map[string]domain.Identity
	calls  int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: map[string]domain.Identity{
		"ann-token": {UserID: 1, Email: "ann@example.com", DisplayName: "Ann"},
		"bob-token": {UserID: 2, Email: "bob@example.com", DisplayName: "bob@example.com"},
	}}
}

func (v *fakeVerifier) Verify(_ context.Context, credential string) (domain.Identity, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	switch credential {
	case "":
		return domain.Identity{}, errs.ErrUnauthenticated
	case "ghost-token":
		return domain.Identity{}, errs.ErrUnknownSubject
	}
	id, ok := v.tokens[credential]
	if !ok {
		return domain.Identity{}, errors.Join(errs.ErrInvalidCredential, errs.ErrInvalidToken)
	}
	return id, nil
}

func (v *fakeVerifier) revoke(credential string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.tokens, credential)
}

func (v *fakeVerifier) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}
