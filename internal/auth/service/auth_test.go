package service

import (
	"context"
	"errors"
	"testing"
	"time"

	autherrors "activerse/internal/auth/errors"
	"activerse/pkg/auth"
	"activerse/pkg/config"
	apperrors "activerse/pkg/errors"
	"activerse/pkg/logger"
	"activerse/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	FindByIdentifierFunc   func(ctx context.Context, identifier string) (*model.User, error)
	FindByEmailFunc        func(ctx context.Context, email string) (*model.User, error)
	FindByIDFunc           func(ctx context.Context, id string) (*model.User, error)
	UpsertFunc             func(ctx context.Context, user *model.User) error
	UpdatePasswordHashFunc func(ctx context.Context, userID string, hash string) error
}

func (m *mockUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return m.FindByIdentifierFunc(ctx, identifier)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.FindByEmailFunc(ctx, email)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *model.User) error {
	return m.UpsertFunc(ctx, user)
}

func (m *mockUserRepository) UpdatePasswordHash(ctx context.Context, userID string, hash string) error {
	return m.UpdatePasswordHashFunc(ctx, userID, hash)
}

type mockResetTokenRepository struct {
	CreateFunc         func(ctx context.Context, token *model.PasswordResetToken) error
	FindValidFunc      func(ctx context.Context, token string) (*model.PasswordResetToken, error)
	MarkUsedFunc       func(ctx context.Context, token string) error
	DeleteByUserIDFunc func(ctx context.Context, userID string) error
}

func (m *mockResetTokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	return m.CreateFunc(ctx, token)
}

func (m *mockResetTokenRepository) FindValid(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	return m.FindValidFunc(ctx, token)
}

func (m *mockResetTokenRepository) MarkUsed(ctx context.Context, token string) error {
	return m.MarkUsedFunc(ctx, token)
}

func (m *mockResetTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return m.DeleteByUserIDFunc(ctx, userID)
}

func newAuthTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		ResetTokenTTL: time.Hour,
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "bootstrap-pass",
		Log:           logger.New(logger.Config{Level: "error", Format: "json", Service: "test"}),
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func adminUser(t *testing.T, password string) *model.User {
	return &model.User{
		ID:           "68b1c2d3e4f5a6b7c8d9e0f1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: hashOf(t, password),
	}
}

func assertStatus(t *testing.T, err error, wantStatus int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus != wantStatus {
		t.Errorf("expected status %d, got %d (%s)", wantStatus, appErr.HTTPStatus, appErr.Message)
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	cfg := newAuthTestConfig()
	user := adminUser(t, "correct-horse")
	users := &mockUserRepository{
		FindByIdentifierFunc: func(ctx context.Context, identifier string) (*model.User, error) {
			if identifier != "admin" {
				return nil, autherrors.ErrUserNotFound
			}
			return user, nil
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	token, got, err := svc.Login(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Username != "admin" {
		t.Errorf("expected user admin, got %s", got.Username)
	}

	claims, err := auth.ParseToken(cfg.JWTSecret, token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected claims for %s, got %s", user.ID, claims.UserID)
	}
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	cfg := newAuthTestConfig()
	user := adminUser(t, "correct-horse")
	users := &mockUserRepository{
		FindByIdentifierFunc: func(ctx context.Context, identifier string) (*model.User, error) {
			return user, nil
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	_, _, err := svc.Login(context.Background(), "admin", "battery-staple")
	assertStatus(t, err, 401)
}

func TestLogin_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	cfg := newAuthTestConfig()
	users := &mockUserRepository{
		FindByIdentifierFunc: func(ctx context.Context, identifier string) (*model.User, error) {
			return nil, autherrors.ErrUserNotFound
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	assertStatus(t, err, 401)
	if apperrors.AsAppError(err).Message != "Invalid credentials" {
		t.Errorf("unexpected message: %s", apperrors.AsAppError(err).Message)
	}
}

func TestLogin_RequiresCredentials(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, &mockResetTokenRepository{}, newAuthTestConfig())

	_, _, err := svc.Login(context.Background(), "", "pass")
	assertStatus(t, err, 400)

	_, _, err = svc.Login(context.Background(), "admin", "")
	assertStatus(t, err, 400)
}

func TestChangePassword(t *testing.T) {
	cfg := newAuthTestConfig()
	user := adminUser(t, "old-password")

	var storedHash string
	users := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
		UpdatePasswordHashFunc: func(ctx context.Context, userID string, hash string) error {
			storedHash = hash
			return nil
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	if err := svc.ChangePassword(context.Background(), user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("new-password")); err != nil {
		t.Errorf("stored hash does not match the new password: %v", err)
	}
}

func TestChangePassword_RejectsWrongCurrentPassword(t *testing.T) {
	cfg := newAuthTestConfig()
	user := adminUser(t, "old-password")
	users := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	err := svc.ChangePassword(context.Background(), user.ID, "guessed-wrong", "new-password")
	assertStatus(t, err, 401)
}

func TestChangePassword_RejectsShortPassword(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, &mockResetTokenRepository{}, newAuthTestConfig())

	err := svc.ChangePassword(context.Background(), "id", "old-password", "short")
	assertStatus(t, err, 400)
}

func TestForgotPassword_HidesUnknownEmails(t *testing.T) {
	users := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, autherrors.ErrUserNotFound
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, newAuthTestConfig())

	token, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unknown email must not surface an error: %v", err)
	}
	if token != "" {
		t.Errorf("unknown email must not yield a token, got %q", token)
	}
}

func TestForgotPassword_InvalidatesOldTokens(t *testing.T) {
	cfg := newAuthTestConfig()
	user := adminUser(t, "whatever")
	users := &mockUserRepository{
		FindByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}

	var deletedFor string
	var created *model.PasswordResetToken
	tokens := &mockResetTokenRepository{
		DeleteByUserIDFunc: func(ctx context.Context, userID string) error {
			deletedFor = userID
			return nil
		},
		CreateFunc: func(ctx context.Context, token *model.PasswordResetToken) error {
			created = token
			return nil
		},
	}

	svc := NewAuthService(users, tokens, cfg)

	token, err := svc.ForgotPassword(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedFor != user.ID {
		t.Errorf("expected old tokens for %s deleted, got %q", user.ID, deletedFor)
	}
	if created == nil || created.Token != token {
		t.Fatal("expected the returned token to be persisted")
	}
	if created.UserID != user.ID {
		t.Errorf("token bound to %s, expected %s", created.UserID, user.ID)
	}
	if !created.ExpiresAt.After(time.Now()) {
		t.Error("token must expire in the future")
	}
}

func TestResetPassword_ConsumesToken(t *testing.T) {
	cfg := newAuthTestConfig()

	var storedHash string
	users := &mockUserRepository{
		UpdatePasswordHashFunc: func(ctx context.Context, userID string, hash string) error {
			storedHash = hash
			return nil
		},
	}

	var markedUsed string
	tokens := &mockResetTokenRepository{
		FindValidFunc: func(ctx context.Context, token string) (*model.PasswordResetToken, error) {
			return &model.PasswordResetToken{
				Token:     token,
				UserID:    "68b1c2d3e4f5a6b7c8d9e0f1",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
		MarkUsedFunc: func(ctx context.Context, token string) error {
			markedUsed = token
			return nil
		},
	}

	svc := NewAuthService(users, tokens, cfg)

	if err := svc.ResetPassword(context.Background(), "reset-token-1", "fresh-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if markedUsed != "reset-token-1" {
		t.Errorf("expected token consumed, got %q", markedUsed)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("fresh-password")); err != nil {
		t.Errorf("stored hash does not match the new password: %v", err)
	}
}

func TestResetPassword_RejectsExpiredOrUsedToken(t *testing.T) {
	tokens := &mockResetTokenRepository{
		FindValidFunc: func(ctx context.Context, token string) (*model.PasswordResetToken, error) {
			return nil, autherrors.ErrTokenNotFound
		},
	}

	svc := NewAuthService(&mockUserRepository{}, tokens, newAuthTestConfig())

	err := svc.ResetPassword(context.Background(), "stale-token", "fresh-password")
	assertStatus(t, err, 400)
	if apperrors.AsAppError(err).Message != "Invalid or expired token" {
		t.Errorf("unexpected message: %s", apperrors.AsAppError(err).Message)
	}
}

func TestBootstrap_UpsertsAdmin(t *testing.T) {
	cfg := newAuthTestConfig()

	var upserted *model.User
	users := &mockUserRepository{
		UpsertFunc: func(ctx context.Context, user *model.User) error {
			upserted = user
			return nil
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, cfg)

	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upserted == nil {
		t.Fatal("expected an upserted admin user")
	}
	if upserted.Username != cfg.AdminUsername || upserted.Email != cfg.AdminEmail {
		t.Errorf("unexpected admin identity: %s / %s", upserted.Username, upserted.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(upserted.PasswordHash), []byte(cfg.AdminPassword)); err != nil {
		t.Errorf("admin hash does not match configured password: %v", err)
	}
}

func TestBootstrap_SurfacesRepositoryFailure(t *testing.T) {
	users := &mockUserRepository{
		UpsertFunc: func(ctx context.Context, user *model.User) error {
			return errors.New("connection refused")
		},
	}

	svc := NewAuthService(users, &mockResetTokenRepository{}, newAuthTestConfig())

	if err := svc.Bootstrap(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}
