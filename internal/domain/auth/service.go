package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"uniformshop/internal/core/apperror"
	"uniformshop/internal/core/id"
	"uniformshop/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Service provides authentication logic.
type Service struct {
	users      UserRepository
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(users UserRepository, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		users:      users,
		jwtService: jwtService,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CreateUser creates an employee account.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	user := NewUser(req.Email, hash, req.Name, req.Role)
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, user.Email)
	if err != nil {
		return nil, apperror.NewStorageUnavailable(err)
	}
	if exists {
		return nil, apperror.NewDuplicate("user", "email", user.Email)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewStorageUnavailable(err)
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	now := s.now()

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperror.NewStorageUnavailable(err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if uerr := s.users.Update(ctx, user); uerr != nil {
			logger.Warn(ctx, "failed to record login failure", "user_id", user.ID, "error", uerr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, apperror.NewInternal(err)
	}

	user.RecordSuccessfulLogin(now)
	if err := s.users.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return &Token{AccessToken: accessToken, ExpiresAt: expiresAt, TokenType: "Bearer"}, user, nil
}

// GetUserByID retrieves a user.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, apperror.NewStorageUnavailable(err)
	}
	return user, nil
}

// ListUsers lists all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.NewStorageUnavailable(err)
	}
	return users, nil
}
