package repository

import (
	"context"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
)

type WorkspaceRepository interface {
	Create(ctx context.Context, w *domain.Workspace) (int64, error)
	GetByUser(ctx context.Context, userID domain.UserID) (*domain.Workspace, error)
	Update(ctx context.Context, w *domain.Workspace) error
}
