package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/errs"
)

const DefaultChannel = "community"

type ChatMessage struct {
	ID         int64
	AuthorID   UserID
	AuthorName string
	Channel    string
	Content    string
	CreatedAt  time.Time
}

// ChatDraft: сообщение до записи в хранилище, id и created_at выдает БД
type ChatDraft struct {
	AuthorID   UserID
	AuthorName string
	Channel    string
	Content    string
}

// NewChatDraft обрезает пробелы и подставляет канал по умолчанию.
// Пустой после обрезки текст: ErrValidation.
func NewChatDraft(author Identity, channel, content string) (ChatDraft, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatDraft{}, fmt.Errorf("content is empty: %w", errs.ErrValidation)
	}

	return ChatDraft{
		AuthorID:   author.UserID,
		AuthorName: author.DisplayName,
		Channel:    NormalizeChannel(channel),
		Content:    content,
	}, nil
}

func NormalizeChannel(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return DefaultChannel
	}
	return channel
}

// HistoryLimit: максимум сообщений, отдаваемых историей канала
const HistoryLimit = 200

// ClampHistoryLimit: <=0 или больше максимума дают HistoryLimit
func ClampHistoryLimit(n int) int {
	if n <= 0 || n > HistoryLimit {
		return HistoryLimit
	}
	return n
}
