package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shopcart/internal/hash"
	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/repo"
	"github.com/Skotchmaster/shopcart/internal/tokens"
)

const defaultTokenTTL = 15 * time.Minute

type AccountService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
}

func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, models.RoleCustomer)
}

func (s *AccountService) SetupAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, name, email, password, models.RoleAdmin)
}

func (s *AccountService) create(ctx context.Context, name, email, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.create", "role", role)

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", ErrInvalidArgument)
	}

	hashed, err := hash.HashPassword(password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return nil, fmt.Errorf("password must be at most %d bytes: %w", hash.MaxPasswordBytes, ErrInvalidArgument)
	}
	if err != nil {
		l.Error("hash_password_failed", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, storeError("create user", err)
	}

	l.Info("user_created", "user_id", u.ID)
	return u, nil
}

// AdminLogin issues an access token for an admin account. Unknown email,
// wrong password and non-admin accounts all fail the same way.
func (s *AccountService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrInvalidArgument)
	}

	u, err := s.Repo.FindUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}
	if err != nil {
		return nil, storeError("find user", err)
	}

	if !hash.CheckPassword(u.PasswordHash, password) || u.Role != models.RoleAdmin {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, exp, err := tokens.NewAccessToken(u.ID.String(), u.Role, s.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: exp, User: u}, nil
}

func (s *AccountService) ListCustomers(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.ListUsersByRole(ctx, models.RoleCustomer)
	if err != nil {
		return nil, storeError("list customers", err)
	}
	return users, nil
}
