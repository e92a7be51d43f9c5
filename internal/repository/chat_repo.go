package repository

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
)

// ChatRepository: хранилище сообщений чата.
// Ошибки драйвера оборачиваются в ErrStoreUnavailable.
type ChatRepository interface {
	// Атомарно записывает сообщение, id и created_at выдает БД
	Append(ctx context.Context, d domain.ChatDraft) (domain.ChatMessage, error)
	// Последние limit сообщений канала по возрастанию id
	Recent(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error)
}
