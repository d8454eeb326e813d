package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/repository"
)

// TokenVerifier extracts the user id from a signed access token.
type TokenVerifier interface {
	UserID(token string) (int64, error)
}

// IdentityService turns bearer tokens into known users.
type IdentityService struct {
	users  repository.UserRepository
	tokens TokenVerifier
}

func NewIdentityService(users repository.UserRepository, tokens TokenVerifier) *IdentityService {
	return &IdentityService{users: users, tokens: tokens}
}

// Resolve fails with domain.ErrUnauthenticated when the token is missing,
// malformed, expired, or names a user that no longer exists.
func (s *IdentityService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	uid, err := s.tokens.UserID(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, domain.ErrUnauthenticated
		}
		return domain.Identity{}, fmt.Errorf("load user %d: %w", uid, err)
	}

	return u.Identity(), nil
}
