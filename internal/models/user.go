package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RoleViewer    Role = "viewer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClinician, RoleViewer:
		return true
	}
	return false
}

// User is a platform account. Users are deactivated, never deleted, so
// assessments and alert acknowledgements keep pointing at them.
type User struct {
	BaseModel
	Username     string     `gorm:"uniqueIndex;size:80;not null" json:"username" validate:"required,max=80"`
	Email        string     `gorm:"uniqueIndex;size:120;not null" json:"email" validate:"required,email,max=120"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName    string     `gorm:"size:50" json:"firstName" validate:"max=50"`
	LastName     string     `gorm:"size:50" json:"lastName" validate:"max=50"`
	Role         Role       `gorm:"size:20;default:'viewer'" json:"role" validate:"oneof=admin clinician viewer"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	IsVerified   bool       `gorm:"default:false" json:"isVerified"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"isActive"`
	IsVerified bool       `json:"isVerified"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
