package repository

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
)

type MediaRepository interface {
	Create(ctx context.Context, a *domain.MediaAsset) (int64, error)
	// Файлы пользователя, новые первыми
	ListByUser(ctx context.Context, userID domain.UserID) ([]domain.MediaAsset, error)
}
