package chat

import (
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"

	"github.com/samber/lo"
)

// MessageView: JSON-представление сообщения для REST и WS
type MessageView struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Channel   string    `json:"channel"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessageView(m domain.ChatMessage) MessageView {
	return MessageView{
		ID:        m.ID,
		UserID:    int64(m.AuthorID),
		UserName:  m.AuthorName,
		Channel:   m.Channel,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func NewMessageViews(ms []domain.ChatMessage) []MessageView {
	return lo.Map(ms, func(m domain.ChatMessage, _ int) MessageView {
		return NewMessageView(m)
	})
}
