package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/metrics"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/pkg/logger"
)

// IdentityVerifier превращает credential в проверенную личность.
// Ошибки: errs.ErrUnauthenticated, errs.ErrInvalidCredential, errs.ErrUnknownSubject.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (domain.Identity, error)
}

type Options struct {
	SendBuffer    int
	FrameRate     float64
	FrameBurst    int
	CacheIdentity bool
	HistoryLimit  int // по умолчанию и потолок для History, не больше domain.HistoryLimit
}

// Service: ядро чата: проверка, запись, рассылка, история
type Service struct {
	verifier IdentityVerifier
	store    repository.ChatRepository
	dispatch *Dispatcher
	metrics  *metrics.Chat
	opts     Options
}

func NewService(v IdentityVerifier, store repository.ChatRepository, d *Dispatcher, m *metrics.Chat, opts Options) *Service {
	opts.HistoryLimit = domain.ClampHistoryLimit(opts.HistoryLimit)
	return &Service{
		verifier: v,
		store:    store,
		dispatch: d,
		metrics:  m,
		opts:     opts,
	}
}

func (s *Service) Options() Options {
	return s.opts
}

func (s *Service) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	return s.verifier.Verify(ctx, credential)
}

// Post: REST-путь: verify → validate → append → broadcast
func (s *Service) Post(ctx context.Context, credential, channel, content string) (domain.ChatMessage, error) {
	id, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	draft, err := domain.NewChatDraft(id, channel, content)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return s.ingest(ctx, draft, metrics.PathREST)
}

// ingest пишет сообщение и только после этого рассылает его
func (s *Service) ingest(ctx context.Context, draft domain.ChatDraft, path string) (domain.ChatMessage, error) {
	msg, err := s.store.Append(ctx, draft)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("chat.append: %w", err)
	}
	s.metrics.MessageIngested(path)

	if _, err := s.dispatch.Broadcast(ctx, msg); err != nil {
		// сообщение уже сохранено, клиенты увидят его через историю
		logger.FromContext(ctx).Error("chat.broadcast failed", slog.Int64("id", msg.ID), slog.Any("err", err))
	}
	return msg, nil
}

// History: последние limit сообщений канала, старые первыми
func (s *Service) History(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > s.opts.HistoryLimit {
		limit = s.opts.HistoryLimit
	}
	msgs, err := s.store.Recent(ctx, domain.NormalizeChannel(channel), limit)
	if err != nil {
		return nil, fmt.Errorf("chat.recent: %w", err)
	}
	return msgs, nil
}

func (s *Service) register(c Conn) {
	if s.dispatch.reg.Register(c) {
		s.metrics.ConnOpened()
	}
}

func (s *Service) unregister(c Conn) {
	if s.dispatch.reg.Unregister(c) {
		s.metrics.ConnClosed()
	}
}

// Live: число зарегистрированных соединений
func (s *Service) Live() int {
	return s.dispatch.reg.Len()
}

// CloseAll снимает и закрывает все соединения, вызывается при остановке
func (s *Service) CloseAll() {
	for _, c := range s.dispatch.reg.Snapshot() {
		s.unregister(c)
		_ = c.Close()
	}
}
