package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/security"
)

type TokenIssuer interface {
	SignAccessToken(subject string, now time.Time) (string, error)
	TTL() time.Duration
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

type AuthService struct {
	users repository.UserRepository
	jwt   TokenIssuer
	now   func() time.Time
}

func NewAuthService(users repository.UserRepository, jwt TokenIssuer, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users: users,
		jwt:   jwt,
		now:   now,
	}
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login аутентифицирует по email+пароль и выпускает access-токен с sub=email
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if err := validateStruct(loginInput{Email: email, Password: password}); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("auth.login.getByEmail: unknown email")
			return nil, errs.ErrInvalidCredentials
		}
		slog.Error("auth.login.getByEmail failed", slog.Any("err", err))
		return nil, err
	}

	if err := security.ComparePassword(u.HashedPassword, password); err != nil {
		return nil, errs.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, errs.ErrInactiveUser
	}

	now := s.now()
	access, err := s.jwt.SignAccessToken(u.Email, now)
	if err != nil {
		slog.Error("auth.login.signAccessToken failed", slog.Any("err", err))
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		// вход уже состоялся, last_login не критичен
		slog.Warn("auth.login.touchLastLogin failed", slog.Any("err", err))
	} else {
		u.TouchLogin(now)
	}

	return &LoginResult{
		User:        u,
		AccessToken: access,
		ExpiresIn:   s.jwt.TTL(),
	}, nil
}
