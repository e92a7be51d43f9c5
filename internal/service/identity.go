package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/repository"
	"github.com/cwrk-planet/kcd-platform/internal/security"
)

type TokenParser interface {
	ParseAndValidate(tokenStr string) (*security.AccessClaims, error)
}

// IdentityVerifier: credential → токен → пользователь по email из sub
type IdentityVerifier struct {
	tokens TokenParser
	users  repository.UserRepository
}

func NewIdentityVerifier(tokens TokenParser, users repository.UserRepository) *IdentityVerifier {
	return &IdentityVerifier{tokens: tokens, users: users}
}

func (v *IdentityVerifier) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	u, err := v.User(ctx, credential)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.IdentityOf(u), nil
}

// User: то же, что Verify, но отдаёт пользователя целиком
func (v *IdentityVerifier) User(ctx context.Context, credential string) (*domain.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, errs.ErrUnauthenticated
	}

	claims, err := v.tokens.ParseAndValidate(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCredential, err)
	}

	u, err := v.users.GetByEmail(ctx, claims.Subject)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, errs.ErrUnknownSubject
	case errors.Is(err, repository.ErrStoreUnavailable):
		return nil, fmt.Errorf("identity.lookup: %w", err)
	case err != nil:
		return nil, fmt.Errorf("identity.lookup: %w: %v", errs.ErrStoreUnavailable, err)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidCredential, errs.ErrInactiveUser)
	}

	return u, nil
}
