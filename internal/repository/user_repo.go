package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Обновляет last_login после успешного входа
	TouchLastLogin(ctx context.Context, id domain.UserID, now time.Time) error
}
