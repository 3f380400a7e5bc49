package dto

import (
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

// LoginRequest payload for login and visitor login.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Nickname string `json:"nickname,omitempty"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// ChangePasswordRequest payload for password updates.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// ProfileRequest payload for profile updates.
type ProfileRequest struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Nickname string  `json:"nickname"`
	Bio      *string `json:"bio"`
	Gender   string  `json:"gender"`
	Avatar   string  `json:"avatar"`
}

// PermissionsUpdateRequest payload for role/permission administration.
type PermissionsUpdateRequest struct {
	Role              string   `json:"role,omitempty"`
	AddPermissions    []string `json:"add_permissions"`
	RemovePermissions []string `json:"remove_permissions"`
}

// TokenPairResponse carries issued credentials.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string         `json:"id"`
	Account      string         `json:"account"`
	Role         string         `json:"role"`
	Permissions  []string       `json:"permissions,omitempty"`
	Status       string         `json:"status"`
	Profile      domain.Profile `json:"profile"`
	LastActiveAt time.Time      `json:"last_active_at"`
}

// NewUserResponse maps a domain user to its public view.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Account:      user.Account,
		Role:         string(user.Role),
		Permissions:  user.Permissions,
		Status:       string(user.Status),
		Profile:      user.Profile,
		LastActiveAt: user.LastActiveAt,
	}
}
