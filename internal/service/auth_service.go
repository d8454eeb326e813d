package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/polimarket/market-service/internal/domain"
	"github.com/polimarket/market-service/internal/metrics"
	"github.com/polimarket/market-service/internal/repository"
	"github.com/polimarket/market-service/internal/security"
)

type TokenIssuer interface {
	SignAccessToken(userID int64, now time.Time) (string, error)
}

type AuthConfig struct {
	// EmailDomain restricts registration, e.g. "@espol.edu.ec". Empty allows any.
	EmailDomain    string
	DeliverySecret string
	Password       security.BcryptConfig
}

type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	cfg    AuthConfig
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if !domain.HasDomain(email, s.cfg.EmailDomain) {
		return nil, domain.ErrEmailDomain
	}

	hash, err := security.HashPassword(password, &s.cfg.Password)
	if err != nil {
		return nil, err
	}

	u, err := domain.NewUser(name, email, hash, s.now().UTC())
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	metrics.UsersRegistered.Inc()

	return u, nil
}

// Login returns a signed access token for valid credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.SignAccessToken(u.ID, s.now())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// BecomeDelivery flags the user as delivery staff when code matches the
// configured join secret. Repeating it is a no-op.
func (s *AuthService) BecomeDelivery(ctx context.Context, userID int64, code string) (*domain.User, error) {
	if s.cfg.DeliverySecret == "" || !security.SecretEqual(code, s.cfg.DeliverySecret) {
		return nil, domain.ErrInvalidDeliveryCode
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsDelivery {
		return u, nil
	}

	if err := s.users.SetDelivery(ctx, userID, true); err != nil {
		return nil, fmt.Errorf("set delivery: %w", err)
	}
	u.IsDelivery = true

	return u, nil
}
