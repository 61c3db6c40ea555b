// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/notesapp/internal/auth"
	"codeberg.org/oliverandrich/notesapp/internal/identity"
	authsvc "codeberg.org/oliverandrich/notesapp/internal/services/auth"
	"codeberg.org/oliverandrich/notesapp/internal/services/email"
	"codeberg.org/oliverandrich/notesapp/internal/services/otp"
	"codeberg.org/oliverandrich/notesapp/internal/services/session"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for authentication.
type AuthHandlers struct {
	auth      *authsvc.Service
	sessions  *session.Manager
	providers map[string]identity.Provider

	// CheckMX gates the MX-record deliverability probe on signup. Off by
	// default so tests and offline development need no DNS.
	CheckMX bool
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(authService *authsvc.Service, sessions *session.Manager, providers ...identity.Provider) *AuthHandlers {
	byName := make(map[string]identity.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthHandlers{
		auth:      authService,
		sessions:  sessions,
		providers: byName,
	}
}

// SendOTPRequest is the request body for requesting a verification code.
type SendOTPRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Signup bool   `json:"signup"`
}

// SendOTP issues a fresh verification code for the email.
func (h *AuthHandlers) SendOTP(c echo.Context) error {
	var req SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email is required"})
	}
	if req.Signup && req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required for signup"})
	}

	purpose := otp.PurposeSignin
	if req.Signup {
		purpose = otp.PurposeSignup

		if h.CheckMX && !email.HasMXRecords(c.Request().Context(), req.Email) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "email address cannot receive mail"})
		}
	}

	err := h.auth.RequestCode(c.Request().Context(), req.Email, purpose, req.Name)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, map[string]string{
			"message": "OTP sent successfully",
			"email":   otp.CanonicalEmail(req.Email),
		})
	case errors.Is(err, authsvc.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email format"})
	case errors.Is(err, otp.ErrUserNotFound):
		// Disclosing this on the signin path is a knowing product choice.
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, otp.ErrDispatchFailed):
		// Detail is already logged by the OTP service for operators.
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "could not send code, try again"})
	default:
		slog.Error("send_otp_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// VerifyOTPRequest is the request body for submitting a verification code.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP checks a submitted code and mints a session on success.
func (h *AuthHandlers) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email and OTP are required"})
	}

	user, err := h.auth.SignInWithOTP(c.Request().Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		cookie, err := h.sessions.Create(user.ID, user.Email)
		if err != nil {
			slog.Error("session_create_failed", "error", err, "user_id", user.ID)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		}
		c.SetCookie(cookie)
		return c.JSON(http.StatusOK, map[string]any{
			"message": "Login successful",
			"user":    user,
		})
	case errors.Is(err, authsvc.ErrUserNotFound), errors.Is(err, otp.ErrInvalidCode):
		// Unknown email and wrong code answer identically so the
		// verification path gives no oracle for registered addresses.
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid verification code"})
	case errors.Is(err, otp.ErrNoPendingVerification):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "no verification in progress"})
	case errors.Is(err, otp.ErrExpired):
		return c.JSON(http.StatusGone, map[string]string{"error": "verification code has expired"})
	case errors.Is(err, otp.ErrTooManyAttempts):
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many attempts, request a new code"})
	default:
		slog.Error("verify_otp_failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// OAuthCallbackRequest is the request body for completing an external
// provider sign-in.
type OAuthCallbackRequest struct {
	Credential string `json:"credential"`
}

// OAuthCallback resolves a provider credential into a verified identity
// and mints a session, transferring trust to the local record.
func (h *AuthHandlers) OAuthCallback(c echo.Context) error {
	provider, ok := h.providers[c.Param("provider")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown provider"})
	}

	var req OAuthCallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Credential == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "credential is required"})
	}

	ident, err := provider.Resolve(c.Request().Context(), req.Credential)
	if err != nil {
		slog.Warn("oauth_resolve_failed", "provider", provider.Name(), "error", err)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "sign-in was not verified"})
	}

	user, err := h.auth.TrustExternal(c.Request().Context(), ident.Email, ident.Name)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidEmail) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid email format"})
		}
		slog.Error("oauth_signin_failed", "provider", provider.Name(), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}

	cookie, err := h.sessions.Create(user.ID, user.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    user,
	})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Expire())
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
