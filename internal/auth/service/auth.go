package service

import (
	"context"
	"errors"

	autherrors "activerse/internal/auth/errors"
	"activerse/internal/auth/repository"
	"activerse/pkg/auth"
	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthService interface {
	Bootstrap(ctx context.Context) error
	Login(ctx context.Context, identifier string, password string) (string, *model.User, error)
	Check(ctx context.Context, userID string) (*model.User, error)
	ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token string, newPassword string) error
}

type authService struct {
	users  repository.UserRepository
	tokens repository.ResetTokenRepository
	cfg    *config.Config
}

func NewAuthService(users repository.UserRepository, tokens repository.ResetTokenRepository, cfg *config.Config) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Bootstrap creates or refreshes the admin user from configuration. Runs at
// startup so the service never depends on out-of-band user provisioning.
func (s *authService) Bootstrap(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash admin password", err)
	}

	user := &model.User{
		Username:     s.cfg.AdminUsername,
		Email:        s.cfg.AdminEmail,
		PasswordHash: string(hash),
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return apperrors.Internal("Failed to bootstrap admin user", err)
	}

	s.cfg.Log.Info("Admin user bootstrapped", "username", user.Username, "email", user.Email)
	return nil
}

func (s *authService) Login(ctx context.Context, identifier string, password string) (string, *model.User, error) {
	if identifier == "" || password == "" {
		return "", nil, apperrors.InvalidInput("Username and password are required")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid credentials")
		}
		return "", nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthorized("Invalid credentials")
	}

	token, err := auth.GenerateToken(s.cfg.JWTSecret, s.cfg.TokenTTL, user.ID, user.Username)
	if err != nil {
		return "", nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Admin login", "username", user.Username)
	return token, user, nil
}

func (s *authService) Check(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.InvalidInput("Current and new passwords are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput("New password must be at least 6 characters")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return apperrors.Unauthorized("Invalid credentials")
		}
		return apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}

	s.cfg.Log.Info("Password changed", "username", user.Username)
	return nil
}

// ForgotPassword issues a single-use reset token valid for ResetTokenTTL.
// Unknown emails succeed without a token so account existence stays hidden.
func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", apperrors.InvalidInput("Email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			return "", nil
		}
		return "", apperrors.Internal("Failed to look up user", err)
	}

	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		return "", apperrors.Internal("Failed to invalidate old reset tokens", err)
	}

	token := &model.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: timeNow().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", apperrors.Internal("Failed to create reset token", err)
	}

	s.cfg.Log.Info("Password reset token issued", "username", user.Username)
	return token.Token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperrors.InvalidInput("Token and new password are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput("Password must be at least 6 characters")
	}

	row, err := s.tokens.FindValid(ctx, token)
	if err != nil {
		if errors.Is(err, autherrors.ErrTokenNotFound) {
			return apperrors.InvalidInput("Invalid or expired token")
		}
		return apperrors.Internal("Failed to look up reset token", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, row.UserID, string(hash)); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}
	if err := s.tokens.MarkUsed(ctx, token); err != nil {
		return apperrors.Internal("Failed to consume reset token", err)
	}

	s.cfg.Log.Info("Password reset completed", "user_id", row.UserID)
	return nil
}
