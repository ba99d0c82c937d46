package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"activerse/pkg/logger"
	"activerse/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAuthService struct {
	forgotPasswordFunc func(ctx context.Context, email string) (string, error)
}

func (m *mockAuthService) Bootstrap(ctx context.Context) error {
	return nil
}

func (m *mockAuthService) Login(ctx context.Context, identifier string, password string) (string, *model.User, error) {
	return "", nil, nil
}

func (m *mockAuthService) Check(ctx context.Context, userID string) (*model.User, error) {
	return nil, nil
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	return nil
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if m.forgotPasswordFunc != nil {
		return m.forgotPasswordFunc(ctx, email)
	}
	return "", nil
}

func (m *mockAuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	return nil
}

func newForgotPasswordHandler(token string, expose bool) *AuthHandler {
	service := &mockAuthService{
		forgotPasswordFunc: func(ctx context.Context, email string) (string, error) {
			return token, nil
		},
	}
	log := logger.New(logger.Config{Level: "error", Format: "json", Service: "test"})
	return &AuthHandler{
		service:          service,
		log:              log,
		exposeResetToken: expose,
	}
}

func TestForgotPassword_TokenStaysServerSideByDefault(t *testing.T) {
	handler := newForgotPasswordHandler("reset-token-1", false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader(`{"email":"admin@example.com"}`))
	w := httptest.NewRecorder()

	handler.ForgotPassword(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp forgotPasswordResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResetToken != "" {
		t.Errorf("reset token must not reach the client, got %q", resp.ResetToken)
	}
	if resp.Message != "If an account with that email exists, a password reset link has been sent." {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestForgotPassword_ExposesTokenWhenConfigured(t *testing.T) {
	handler := newForgotPasswordHandler("reset-token-1", true)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader(`{"email":"admin@example.com"}`))
	w := httptest.NewRecorder()

	handler.ForgotPassword(w, req, httprouter.Params{})

	var resp forgotPasswordResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ResetToken != "reset-token-1" {
		t.Errorf("expected the token in the response, got %q", resp.ResetToken)
	}
}

func TestForgotPassword_UnknownEmailSameResponseEitherWay(t *testing.T) {
	for _, expose := range []bool{false, true} {
		handler := newForgotPasswordHandler("", expose)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader(`{"email":"nobody@example.com"}`))
		w := httptest.NewRecorder()

		handler.ForgotPassword(w, req, httprouter.Params{})

		if w.Code != http.StatusOK {
			t.Errorf("expose=%v: expected status 200, got %d", expose, w.Code)
		}
		if strings.Contains(w.Body.String(), "resetToken") {
			t.Errorf("expose=%v: no token field expected for unknown email, got %s", expose, w.Body.String())
		}
	}
}
