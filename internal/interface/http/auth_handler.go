package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/domain/entity"
	"github.com/printdesk/idcard-api/pkg/helpers"
	"github.com/printdesk/idcard-api/pkg/response"
	"github.com/printdesk/idcard-api/pkg/validation"
)

// AuthHandler exposes the registration, verification, login, and password
// reset flows over JSON.
type AuthHandler struct {
	Svc     *application.AuthService
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, cookies *helpers.CookieManager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

// registerRequest deliberately has no role field: self-service registration
// always yields the default role, and admin accounts come from the seed.
type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// internalError logs the full failure and answers with a generic envelope.
func (h *AuthHandler) internalError(c *gin.Context, op string, err error) {
	h.Logger.WithError(err).WithField("op", op).Error("auth flow failed")
	response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, err := h.Svc.Register(c.Request.Context(), req.Name, req.Email, req.Password, entity.DefaultRole)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrDuplicateEmail):
			response.Error[any](c, http.StatusBadRequest, "email already registered", nil)
		case errors.Is(err, application.ErrValidation):
			response.Error[any](c, http.StatusBadRequest, "invalid payload", nil)
		default:
			h.internalError(c, "register", err)
		}
		return
	}
	response.Success(c, http.StatusCreated, a.Summary(), "account created, verification email sent", nil)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, sess, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Error[any](c, http.StatusBadRequest, "invalid credentials", nil)
		case errors.Is(err, application.ErrEmailNotVerified):
			// The email lets the frontend offer a resend action.
			response.Error[any](c, http.StatusForbidden, "email not verified", gin.H{"email": req.Email})
		default:
			h.internalError(c, "login", err)
		}
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Success(c, http.StatusOK, a.Summary(), "login successful", gin.H{"expires_at": sess.ExpiresAt})
}

// VerifyEmail handles GET /api/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	a, sess, err := h.Svc.ConfirmEmail(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, application.ErrTokenInvalidOrExpired) {
			response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
			return
		}
		h.internalError(c, "verify_email", err)
		return
	}
	// Auto-login after verification to reduce friction.
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)
	response.Success(c, http.StatusOK, a.Summary(), "email verified", gin.H{"expires_at": sess.ExpiresAt})
}

// ResendVerification handles POST /api/resend-verification.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "no unverified account for that email", nil)
			return
		}
		h.internalError(c, "resend_verification", err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "verification email sent", nil)
}

// ForgotPassword handles POST /api/forgot-password. The response shape is
// identical whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.internalError(c, "forgot_password", err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "if the email is registered, a reset link has been sent", nil)
}

// ResetPassword handles POST /api/reset-password. No session is issued; the
// user logs in with the new password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, application.ErrTokenInvalidOrExpired):
			response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		case errors.Is(err, application.ErrValidation):
			response.Error[any](c, http.StatusBadRequest, "invalid payload", nil)
		default:
			h.internalError(c, "reset_password", err)
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
