package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/metrics"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"

	"golang.org/x/time/rate"
)

type State int32

const (
	StateConnecting State = iota
	StateVerifying
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateVerifying:
		return "verifying"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrSessionState   = errors.New("session is not in the expected state")
)

// Frame: входящий кадр real-time сессии
type Frame struct {
	Channel string `json:"channel"`
	Content string `json:"content"`
}

// Session: одна real-time сессия: Connecting → Verifying → Open → Closed.
// Handle вызывается только из читающей горутины.
type Session struct {
	svc        *Service
	credential string
	identity   domain.Identity
	conn       Conn
	limiter    *rate.Limiter
	state      atomic.Int32
	closeOnce  sync.Once
}

func (s *Service) NewSession(credential string) *Session {
	sess := &Session{svc: s, credential: credential}
	if s.opts.FrameRate > 0 {
		sess.limiter = rate.NewLimiter(rate.Limit(s.opts.FrameRate), max(s.opts.FrameBurst, 1))
	}
	return sess
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) Identity() domain.Identity {
	return s.identity
}

// Verify проверяет credential рукопожатия. При ошибке сессия закрыта
// и соединение не должно апгрейдиться.
func (s *Session) Verify(ctx context.Context) (domain.Identity, error) {
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateVerifying)) {
		return domain.Identity{}, ErrSessionState
	}
	id, err := s.svc.Verify(ctx, s.credential)
	if err != nil {
		s.state.Store(int32(StateClosed))
		s.svc.metrics.SessionClosed("handshake")
		return domain.Identity{}, err
	}
	s.identity = id
	return id, nil
}

// Attach регистрирует соединение и открывает сессию
func (s *Session) Attach(c Conn) error {
	if !s.state.CompareAndSwap(int32(StateVerifying), int32(StateOpen)) {
		return ErrSessionState
	}
	s.conn = c
	s.svc.register(c)
	return nil
}

// Handle обрабатывает один кадр: decode → validate → verify → append → broadcast.
// nil: сессия продолжается (в том числе для проигнорированных кадров).
// ErrMalformedFrame, ошибки личности и errs.ErrStoreUnavailable завершают сессию.
func (s *Session) Handle(ctx context.Context, data []byte) error {
	if s.State() != StateOpen {
		return ErrSessionState
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.svc.metrics.FrameDropped("rate")
		return nil
	}

	if strings.TrimSpace(f.Content) == "" {
		s.svc.metrics.FrameDropped("empty")
		return nil
	}

	id := s.identity
	if !s.svc.opts.CacheIdentity {
		var err error
		if id, err = s.svc.Verify(ctx, s.credential); err != nil {
			return err
		}
	}

	draft, err := domain.NewChatDraft(id, f.Channel, f.Content)
	if err != nil {
		return err
	}

	if _, err := s.svc.ingest(ctx, draft, metrics.PathWS); err != nil {
		return err
	}
	return nil
}

// Close снимает соединение с реестра ровно один раз
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		prev := State(s.state.Swap(int32(StateClosed)))
		if s.conn != nil {
			s.svc.unregister(s.conn)
			_ = s.conn.Close()
		}
		if prev == StateOpen {
			s.svc.metrics.SessionClosed(reason)
		}
	})
}

// CloseReason: метка закрытия для ошибки из Handle
func CloseReason(err error) string {
	switch {
	case err == nil:
		return "client"
	case errors.Is(err, ErrMalformedFrame):
		return "malformed"
	case errs.IsAuth(err):
		return "auth"
	case errors.Is(err, errs.ErrStoreUnavailable):
		return "store"
	default:
		return "error"
	}
}

func (s *Session) logAttrs() []any {
	return []any{
		slog.Int64("user_id", int64(s.identity.UserID)),
		slog.String("state", s.State().String()),
	}
}

// LogClose пишет причину закрытия в контекстный логгер
func (s *Session) LogClose(ctx context.Context, err error) {
	l := logger.FromContext(ctx).With(s.logAttrs()...)
	if err == nil {
		l.Debug("chat.session closed")
		return
	}
	l.Info("chat.session terminated", slog.String("reason", CloseReason(err)), slog.Any("err", err))
}
