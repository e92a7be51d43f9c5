package domain

import (
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/errs"
)

type UserID int64

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	TierFree = "free"
)

type User struct {
	ID               UserID
	Email            string
	HashedPassword   string
	FullName         *string
	Role             string
	IsActive         bool
	IsVerified       bool
	SubscriptionTier string
	AvatarURL        *string
	Bio              *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastLogin        *time.Time
}

// Создает нового пользователя
// Ожидает уже посчитанный хеш пароля
func NewUser(email, passwordHash string, now time.Time, opts ...UserOption) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.ErrInvalidEmail
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, errs.ErrEmptyPasswordHash
	}

	user := &User{
		Email:            email,
		HashedPassword:   passwordHash,
		Role:             RoleUser,
		IsActive:         true,
		SubscriptionTier: TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(user)
	}

	return user, nil
}

// DisplayName: имя автора для сообщений чата: full_name, иначе email
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

func (u *User) TouchLogin(now time.Time) {
	u.LastLogin = &now
	u.UpdatedAt = now
}

// Options конструктора
type UserOption func(*User)

func WithFullName(name string) UserOption {
	return func(u *User) { u.FullName = trimPtr(&name) }
}

func WithRole(role string) UserOption {
	return func(u *User) {
		if r := strings.TrimSpace(role); r != "" {
			u.Role = r
		}
	}
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}

	return &t
}
