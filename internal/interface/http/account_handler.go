package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/interface/middleware"
	"github.com/printdesk/idcard-api/pkg/helpers"
	"github.com/printdesk/idcard-api/pkg/response"
	"github.com/printdesk/idcard-api/pkg/validation"
)

// AccountHandler serves the authenticated caller's own account: the "who is
// the caller" surface consumed by the record-keeping side of the app.
type AccountHandler struct {
	Svc     *application.AuthService
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewAccountHandler(svc *application.AuthService, cookies *helpers.CookieManager, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

type updateProfileRequest struct {
	Name                string `json:"name" binding:"required"`
	HasCompletedProfile bool   `json:"has_completed_profile"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Logout clears the session cookie. Session tokens are bearer tokens with
// no server-side revocation; the cookie removal is the whole operation.
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.ClearSession(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// GetProfile handles GET /api/profile.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	a, err := h.Svc.Profile(c.Request.Context(), id.ID)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "account not found", nil)
			return
		}
		h.Logger.WithError(err).Error("load profile failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":                    a.ID,
		"name":                  a.Name,
		"email":                 a.Email,
		"role":                  a.Role,
		"is_email_verified":     a.IsEmailVerified,
		"has_completed_profile": a.HasCompletedProfile,
		"last_login_at":         a.LastLoginAt,
		"created_at":            a.CreatedAt,
	}, "profile", nil)
}

// GetAccount handles GET /api/accounts/:id, the admin-side account lookup
// used when resolving print-queue and record issues.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	a, err := h.Svc.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "account not found", nil)
			return
		}
		h.Logger.WithError(err).Error("load account failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":                    a.ID,
		"name":                  a.Name,
		"email":                 a.Email,
		"role":                  a.Role,
		"is_email_verified":     a.IsEmailVerified,
		"has_completed_profile": a.HasCompletedProfile,
		"is_active":             a.IsActive,
		"last_login_at":         a.LastLoginAt,
		"created_at":            a.CreatedAt,
	}, "account", nil)
}

// SetAccountActive handles PUT /api/accounts/:id/active, the admin switch
// that locks an account out or restores it.
func (h *AccountHandler) SetAccountActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.SetAccountActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "account not found", nil)
			return
		}
		h.Logger.WithError(err).Error("set account active failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"is_active": *req.Active}, "account updated", nil)
}

// ChangePassword handles PUT /api/password. The current password is required
// unless the account is OAuth-only and has none yet.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.ChangePassword(c.Request.Context(), id.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Error[any](c, http.StatusBadRequest, "current password incorrect", nil)
		case errors.Is(err, application.ErrValidation):
			response.Error[any](c, http.StatusBadRequest, "invalid payload", nil)
		case errors.Is(err, application.ErrAccountNotFound):
			response.Error[any](c, http.StatusNotFound, "account not found", nil)
		default:
			h.Logger.WithError(err).Error("change password failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password updated", nil)
}

// UpdateProfile handles PUT /api/profile.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	id, _ := middleware.GetIdentity(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.UpdateProfile(c.Request.Context(), id.ID, req.Name, req.HasCompletedProfile)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "account not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update profile failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, a.Summary(), "profile updated", nil)
}
