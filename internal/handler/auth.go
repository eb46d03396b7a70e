package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"tabi-backend/internal/config"
	"tabi-backend/internal/httputil"
	"tabi-backend/internal/model"
	"tabi-backend/internal/service"
	"tabi-backend/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	mailService *service.MailService
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, mailService *service.MailService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		mailService: mailService,
		config:      cfg,
	}
}

// Register handles sign-up and sends the verification mail
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Username) == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteConflict(w, "Username already exists")
		case errors.Is(err, model.ErrEmailExists):
			httputil.WriteConflict(w, "Email already registered")
		default:
			httputil.WriteInternalError(w, "Failed to register")
		}
		return
	}

	h.sendVerificationMail(user)

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Email == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}
	if req.Password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	var email string
	if user.Email != nil {
		email = *user.Email
	}
	tokenPair, err := h.authService.GenerateTokenPair(r.Context(), user.ID, email)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	response := model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Refresh handles token rotation
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	tokenPair, _, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorized(w, "Invalid refresh token")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
		case errors.Is(err, model.ErrRefreshTokenReused):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Refresh token reuse detected. Please login again.")
		default:
			httputil.WriteInternalError(w, "Failed to refresh tokens")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenPair)
}

// Logout revokes a single refresh token
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	// Revoking an unknown token still reports success; logout is idempotent.
	if err := h.authService.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteInternalError(w, "Failed to logout")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// LogoutAll revokes every refresh token of the caller
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.authService.RevokeAllUserTokens(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to logout from all devices")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out from all devices",
	})
}

// RequestPasswordReset mails a reset link if the email belongs to an account
// POST /auth/password-reset/request
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		httputil.WriteBadRequest(w, "Email is required")
		return
	}

	// The response never reveals whether the account exists.
	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err == nil && user.Email != nil {
		token, tokenErr := h.authService.GeneratePasswordResetToken(*user.Email)
		if tokenErr == nil {
			resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.config.AppBaseURL, url.QueryEscape(token))
			if mailErr := h.mailService.SendPasswordResetEmail(*user.Email, user.Username, resetURL); mailErr != nil {
				log.Printf("failed to send password reset mail to user %d: %v", user.ID, mailErr)
			}
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If that email is registered, a reset link has been sent",
	})
}

// ConfirmPasswordReset sets a new password from a mailed reset token
// POST /auth/password-reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}
	if req.NewPassword == "" {
		httputil.WriteBadRequest(w, "New password is required")
		return
	}

	email, err := h.authService.ParsePurposeToken(req.Token, service.TokenPurposePasswordReset)
	if err != nil {
		httputil.WriteUnauthorized(w, "Invalid or expired reset token")
		return
	}

	user, err := h.userService.ResetPassword(r.Context(), email, req.NewPassword)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "Invalid or expired reset token")
			return
		}
		httputil.WriteInternalError(w, "Failed to reset password")
		return
	}

	// Every session dies with the old password.
	if err := h.authService.DeleteAllUserTokens(r.Context(), user.ID); err != nil {
		log.Printf("failed to delete tokens after password reset for user %d: %v", user.ID, err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated. Please login again.",
	})
}

// VerifyEmail confirms ownership of the registered address
// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "Token is required")
		return
	}

	email, err := h.authService.ParsePurposeToken(req.Token, service.TokenPurposeEmailVerify)
	if err != nil {
		httputil.WriteUnauthorized(w, "Invalid or expired verification token")
		return
	}

	if err := h.userService.VerifyEmail(r.Context(), email); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "Invalid or expired verification token")
			return
		}
		httputil.WriteInternalError(w, "Failed to verify email")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified",
	})
}

// ResendVerification mails a fresh verification link to the caller
// POST /auth/verify-email/resend
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}
	if user.EmailVerified {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Email already verified",
		})
		return
	}

	h.sendVerificationMail(user)

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Verification email sent",
	})
}

// sendVerificationMail is best effort; registration never fails on mail
// delivery problems.
func (h *AuthHandler) sendVerificationMail(user *model.User) {
	if user.Email == nil || !h.mailService.IsConfigured() {
		return
	}
	token, err := h.authService.GenerateEmailVerifyToken(*user.Email)
	if err != nil {
		log.Printf("failed to generate verify token for user %d: %v", user.ID, err)
		return
	}
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", h.config.AppBaseURL, url.QueryEscape(token))
	if err := h.mailService.SendVerificationEmail(*user.Email, user.Username, verifyURL); err != nil {
		log.Printf("failed to send verification mail to user %d: %v", user.ID, err)
	}
}
