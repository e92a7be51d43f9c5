package postgres

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository/queries"

	"github.com/jackc/pgx/v5"
)

// ChatRepo: хранилище сообщений канала. Одна таблица, один INSERT на сообщение.
type ChatRepo struct {
	q querier
}

func NewChatRepo(q querier) *ChatRepo {
	return &ChatRepo{q: q}
}

func (r *ChatRepo) Append(ctx context.Context, d domain.ChatDraft) (domain.ChatMessage, error) {
	row := r.q.QueryRow(ctx, queries.QueryAppendChatMessage,
		int64(d.AuthorID),
		d.AuthorName,
		domain.NormalizeChannel(d.Channel),
		d.Content,
	)

	m, err := scanChatMessage(row)
	if err != nil {
		return domain.ChatMessage{}, unavailable("chat.append", err)
	}

	return m, nil
}

// Recent возвращает limit последних сообщений канала, старые первыми
func (r *ChatRepo) Recent(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error) {
	limit = domain.ClampHistoryLimit(limit)

	rows, err := r.q.Query(ctx, queries.QueryRecentChatMessages, domain.NormalizeChannel(channel), limit)
	if err != nil {
		return nil, unavailable("chat.recent", err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0, limit)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, unavailable("chat.recent", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("chat.recent", err)
	}

	return out, nil
}

func scanChatMessage(row pgx.Row) (domain.ChatMessage, error) {
	var (
		m      domain.ChatMessage
		author int64
	)
	if err := row.Scan(&m.ID, &author, &m.AuthorName, &m.Channel, &m.Content, &m.CreatedAt); err != nil {
		return domain.ChatMessage{}, err
	}
	m.AuthorID = domain.UserID(author)

	return m, nil
}
