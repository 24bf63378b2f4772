package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/middleware"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// AuthHandler serves the authenticated user's own profile. Tokens are
// issued elsewhere.
type AuthHandler struct {
	base
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(s, cfg, logger)}
}

// GetProfile handles fetching the current user's profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
}

// UpdateProfile handles updating the current user's names. Email and role
// changes go through the admin endpoints.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.UpdateUser(c.Request.Context(), userID, store.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}
