package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/service"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// UsersHandler exposes account and session endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// VisitorLogin handles POST /users/visitor-login. Creates the visitor
// account on first contact.
func (h *UsersHandler) VisitorLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Account == "" || req.Password == "" {
		return apperrors.NewValidationError("account and password required", nil)
	}

	user, pair, err := h.auth.VisitorLogin(c.Context(), req.Account, req.Password, req.Nickname, c.IP(), presentedToken(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "login successful",
		"auth":    tokenPairResponse(pair),
		"user":    dto.NewUserResponse(user),
	})
}

// Login handles POST /users/login for non-visitor accounts.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Account == "" || req.Password == "" {
		return apperrors.NewValidationError("account and password required", nil)
	}

	user, pair, err := h.auth.Login(c.Context(), req.Account, req.Password, c.IP(), presentedToken(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "login successful",
		"auth":    tokenPairResponse(pair),
		"user":    dto.NewUserResponse(user),
	})
}

// Register handles POST /users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Account == "" || req.Password == "" {
		return apperrors.NewValidationError("account and password required", nil)
	}

	user, pair, err := h.auth.Register(c.Context(), req.Account, req.Password, domain.Role(req.Role), c.IP())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "registration successful",
		"auth":    tokenPairResponse(pair),
		"user":    dto.NewUserResponse(user),
	})
}

// Logout handles POST /users/logout; requires the access guard.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	token, ok := auth.TokenFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	h.auth.Logout(c.Context(), token)
	return c.JSON(fiber.Map{"message": "logout successful"})
}

// ChangePassword handles PUT /users/password; retires the current token.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	token, _ := auth.TokenFromContext(c)

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password required", nil)
	}

	if err := h.auth.ChangePassword(c.Context(), user.ID, req.Password, token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "password changed"})
}

// UpdateProfile handles PUT /users/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.auth.UpdateProfile(c.Context(), user.ID, domain.Profile{
		Email:    req.Email,
		Phone:    req.Phone,
		Nickname: req.Nickname,
		Bio:      req.Bio,
		Gender:   req.Gender,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "profile updated",
		"user":    dto.NewUserResponse(updated),
	})
}

// Search handles GET /users/search?keyword=.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	keyword := c.Query("keyword")
	if keyword == "" {
		return apperrors.NewValidationError("keyword required", nil)
	}

	users, err := h.auth.SearchUsers(c.Context(), keyword, c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	results := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"users": results})
}

// RefreshToken handles GET /users/refresh-token; requires the refresh guard.
func (h *UsersHandler) RefreshToken(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	token, expiresAt, err := h.auth.RefreshAccessToken(user.ID, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":           "token refreshed",
		"access_token":      token,
		"access_expires_at": expiresAt,
	})
}

// UpdatePermissions handles PUT /admin/permissions/:userId.
func (h *UsersHandler) UpdatePermissions(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var req dto.PermissionsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	var role *domain.Role
	if req.Role != "" {
		r := domain.Role(req.Role)
		role = &r
	}

	updated, err := h.auth.UpdatePermissions(c.Context(), userID, role, req.AddPermissions, req.RemovePermissions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "permissions updated",
		"user": fiber.Map{
			"role":        updated.Role,
			"permissions": updated.Permissions,
		},
	})
}

func tokenPairResponse(pair *service.TokenPair) dto.TokenPairResponse {
	return dto.TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// presentedToken extracts a bearer token when one accompanies the request,
// so a re-login can retire the prior session.
func presentedToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
