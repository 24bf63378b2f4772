package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// UserHandler handles user administration requests.
type UserHandler struct {
	base
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *UserHandler {
	return &UserHandler{base: newBase(s, cfg, logger)}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=80"`
	Email     string `json:"email" binding:"required,email,max=120"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
	Role      string `json:"role" binding:"omitempty,oneof=admin clinician viewer"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.CreateUser(c.Request.Context(), store.NewUser{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles listing users (admin). Filters: role, active=true.
func (h *UserHandler) GetUsers(c *gin.Context) {
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	filter := store.UserFilter{Role: models.Role(c.Query("role"))}
	if filter.Role != "" && !filter.Role.Valid() {
		utils.BadRequest(c, "Unknown role: "+c.Query("role"))
		return
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(c, "active must be true or false")
			return
		}
		filter.ActiveOnly = active
	}

	users, total, err := h.Store.ListUsers(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitizedUsers[i] = u.Sanitize()
	}
	utils.Success(c, "Users fetched successfully", utils.Paged(sanitizedUsers, meta, total))
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
type UpdateUserRequest struct {
	Email      *string `json:"email" binding:"omitempty,email,max=120"`
	FirstName  *string `json:"firstName" binding:"omitempty,max=50"`
	LastName   *string `json:"lastName" binding:"omitempty,max=50"`
	Role       *string `json:"role" binding:"omitempty,oneof=admin clinician viewer"`
	IsVerified *bool   `json:"isVerified"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	upd := store.UserUpdate{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		IsVerified: req.IsVerified,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}

	user, err := h.Store.UpdateUser(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeactivateUser handles DELETE on a user (admin). The account is disabled,
// not removed.
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	user, err := h.Store.DeactivateUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "User deactivated successfully", user.Sanitize())
}
