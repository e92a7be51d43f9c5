package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/security"
)

type RegisterInput struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=72"`
	FullName string `validate:"max=200"`
	Role     string `validate:"omitempty,oneof=user brand guest"`
}

type UserService struct {
	users      repository.UserRepository
	tx         repository.TxManager
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewUserService(users repository.UserRepository, tx repository.TxManager, passPolicy security.BcryptConfig, now func() time.Time) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, tx: tx, passPolicy: passPolicy, now: now}
}

// Register создаёт пользователя и его рабочее пространство в одной транзакции
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(in.Password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	now := s.now()
	opts := []domain.UserOption{domain.WithRole(in.Role)}
	if in.FullName != "" {
		opts = append(opts, domain.WithFullName(in.FullName))
	}
	u, err := domain.NewUser(in.Email, hash, now, opts...)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		exists, err := tx.Users().ExistsByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrAlreadyExists
		}

		id, err := tx.Users().Create(ctx, u)
		if err != nil {
			return err
		}
		u.ID = id

		_, err = tx.Workspaces().Create(ctx, domain.NewDefaultWorkspace(u, now))
		return err
	})
	if err != nil {
		slog.Error("users.register failed", slog.String("email", u.Email), slog.Any("err", err))
		return nil, err
	}

	return u, nil
}

func (s *UserService) Get(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
