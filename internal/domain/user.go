package domain

import "time"

// Role classifies an account within the permission system.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleMember     Role = "member"
	RoleVisitor    Role = "visitor"
)

// ValidRole reports whether r belongs to the closed role enumeration.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMember, RoleVisitor:
		return true
	}
	return false
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// Profile holds optional personal details attached to a user.
type Profile struct {
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Nickname string  `json:"nickname"`
	Bio      *string `json:"bio"`
	Gender   string  `json:"gender"`
	Avatar   string  `json:"avatar"`
}

// User is the domain model for blog accounts, from visitors to admins.
// Permissions start as the role defaults and may diverge afterwards through
// explicit grants and revocations.
type User struct {
	ID           string
	Account      string
	PasswordHash string
	Role         Role
	Permissions  []string
	Status       UserStatus
	LastActiveAt time.Time
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPermission reports whether the literal capability was granted.
func (u *User) HasPermission(capability string) bool {
	for _, p := range u.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}
