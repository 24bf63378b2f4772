package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// NewUser is the input for CreateUser.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// UserUpdate carries optional changes; nil fields are left alone.
type UserUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	Role       *models.Role
	IsVerified *bool
}

// UserFilter narrows ListUsers.
type UserFilter struct {
	Role       models.Role
	ActiveOnly bool
}

// Password length limits for new accounts. bcrypt rejects anything longer
// than MaxPasswordLength bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// CreateUser registers a user. Username and email must both be unused.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleViewer
	}
	if len(in.Password) < MinPasswordLength {
		return nil, violation("password must be at least %d characters", MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordLength {
		return nil, violation("password must be at most %d bytes", MaxPasswordLength)
	}

	user := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		IsActive:  true,
	}
	if err := validateStruct(user); err != nil {
		return nil, err
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserUnique(tx, "username", user.Username, ""); err != nil {
			return err
		}
		if err := ensureUserUnique(tx, "email", user.Email, ""); err != nil {
			return err
		}
		return insert(tx, user)
	})
	if err != nil {
		return nil, translate("create user", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func ensureUserUnique(tx *gorm.DB, column, value, exceptID string) error {
	q := tx.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check %s: %w", column, err)
	}
	if n > 0 {
		return violation("%s %q is already in use", column, value)
	}
	return nil
}

// GetUser loads a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.first(ctx, &user, "user", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername loads a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("user", username)
		}
		return nil, translate("get user", err)
	}
	return &user, nil
}

// Authenticate returns the active user matching username and password.
// Unknown users, wrong passwords and deactivated accounts all report
// ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListUsers returns one page of users ordered by username, and the total count.
func (s *Store) ListUsers(ctx context.Context, filter UserFilter, page Page) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count users", err)
	}
	var users []models.User
	if err := page.apply(q.Order("username asc")).Find(&users).Error; err != nil {
		return nil, 0, translate("list users", err)
	}
	return users, total, nil
}

// UpdateUser applies the non-nil fields of upd.
func (s *Store) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("user", id)
			}
			return err
		}
		if upd.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*upd.Email))
			if email != user.Email {
				if err := ensureUserUnique(tx, "email", email, user.ID); err != nil {
					return err
				}
				user.Email = email
			}
		}
		if upd.FirstName != nil {
			user.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			user.LastName = *upd.LastName
		}
		if upd.Role != nil {
			user.Role = *upd.Role
		}
		if upd.IsVerified != nil {
			user.IsVerified = *upd.IsVerified
		}
		if err := validateStruct(&user); err != nil {
			return err
		}
		return save(tx, &user)
	})
	if err != nil {
		return nil, translate("update user", err)
	}
	return &user, nil
}

// DeactivateUser disables an account. The row and everything attributed to
// it stay in place.
func (s *Store) DeactivateUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return user, nil
	}
	user.IsActive = false
	if err := save(s.db.WithContext(ctx), user); err != nil {
		return nil, translate("deactivate user", err)
	}
	s.logger.Info("user deactivated", zap.String("user_id", user.ID))
	return user, nil
}
