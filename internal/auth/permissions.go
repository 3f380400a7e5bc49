package auth

import "github.com/spec-kit/blog-service/internal/domain"

// Capability strings use the resource:action format. The universal wildcard
// grants everything.
const (
	PermissionWildcard = "*:*:*"

	PermArticleCreate = "article:create"
	PermArticleUpdate = "article:update"
	PermArticleDelete = "article:delete"
	PermArticleRead   = "article:read"

	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"
	PermUserRead   = "user:read"

	PermPermissionsCreate = "permissions:create"
	PermPermissionsUpdate = "permissions:update"
	PermPermissionsDelete = "permissions:delete"
	PermPermissionsRead   = "permissions:read"
)

// DefaultPermissionsFor returns the capability set granted to a role at
// account creation. The store applies it when an account is created with no
// explicit permissions; afterwards the set evolves independently of the role.
func DefaultPermissionsFor(role domain.Role) []string {
	switch role {
	case domain.RoleSuperAdmin:
		return []string{PermissionWildcard}
	case domain.RoleAdmin:
		return []string{
			PermArticleCreate, PermArticleUpdate, PermArticleDelete, PermArticleRead,
			PermUserCreate, PermUserUpdate, PermUserDelete, PermUserRead,
		}
	case domain.RoleMember:
		return []string{PermArticleRead, PermUserRead, PermUserUpdate, PermUserCreate}
	case domain.RoleVisitor:
		return []string{PermArticleRead, PermUserRead, PermUserCreate}
	default:
		return nil
	}
}

// Allows decides whether the user may perform the required capability.
// Super admins and wildcard holders pass unconditionally; everyone else
// needs the literal capability in their set. No partial wildcard matching.
func Allows(user *domain.User, requiredCapability string) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleSuperAdmin || user.HasPermission(PermissionWildcard) {
		return true
	}
	return user.HasPermission(requiredCapability)
}
