package handler

import (
	"encoding/json"
	"net/http"

	"activerse/internal/auth/service"
	httputil "activerse/pkg/http"
	"activerse/pkg/logger"
	"activerse/pkg/middleware"
	"activerse/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AuthHandler struct {
	service service.AuthService
	guard   *middleware.Guard
	log     *logger.Logger

	// exposeResetToken puts the reset token in the forgot-password
	// response for development setups without a mailer. Off by default:
	// the token grants an admin password reset.
	exposeResetToken bool
}

func NewAuthHandler(service service.AuthService, guard *middleware.Guard, log *logger.Logger, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{
		service:          service,
		guard:            guard,
		log:              log,
		exposeResetToken: exposeResetToken,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

type checkResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "Login")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, loginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteSuccess", "error", err)
	}
}

// Check reports authentication state without rejecting the request; an
// unauthenticated caller gets a 200 with authenticated=false.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, err := h.guard.Authenticate(r)
	if err != nil {
		if writeErr := httputil.WriteSuccess(w, checkResponse{Authenticated: false}); writeErr != nil {
			h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", writeErr)
		}
		return
	}

	user, err := h.service.Check(r.Context(), claims.UserID)
	if err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusUnauthorized, checkResponse{Authenticated: false}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Check", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, checkResponse{
		Authenticated: true,
		User:          user,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		if writeErr := httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
			Error: "Authentication required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "ChangePassword", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "ChangePassword")
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, "ChangePassword", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MessageResponse{
		Message: "Password changed successfully",
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangePassword", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "ForgotPassword")
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, "ForgotPassword", err)
		return
	}

	resp := forgotPasswordResponse{
		Message: "If an account with that email exists, a password reset link has been sent.",
	}
	if h.exposeResetToken {
		resp.ResetToken = token
	} else if token != "" {
		h.log.Info("Password reset token issued", "token", token)
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "ForgotPassword", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "ResetPassword")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, "ResetPassword", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MessageResponse{
		Message: "Password reset successfully",
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ResetPassword", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) writeBadRequest(w http.ResponseWriter, handler string) {
	if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
	}); writeErr != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/auth/check", h.Check)
	router.POST("/api/auth/change-password", h.guard.Wrap(h.ChangePassword))
	router.POST("/api/auth/forgot-password", h.ForgotPassword)
	router.POST("/api/auth/reset-password", h.ResetPassword)
}
