package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// TokenPair bundles the credentials handed out on login.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login and credential lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	blacklist  *auth.Blacklist
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Blacklist  *auth.Blacklist
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		blacklist:  deps.Blacklist,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// IssueTokenPair mints an access token bound to the client IP plus a
// refresh token for the subject.
func (s *AuthService) IssueTokenPair(subjectID, clientIP string) (*TokenPair, error) {
	accessToken, accessExp, err := s.tokens.IssueAccess(subjectID, clientIP)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(subjectID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VisitorLogin signs a visitor in, creating the account on first contact.
// A token presented alongside the login is blacklisted so re-login cannot
// leave two live sessions.
func (s *AuthService) VisitorLogin(ctx context.Context, account, password, nickname, clientIP, presentedToken string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByAccount(ctx, account)
	switch {
	case err == nil:
		if user.Role != domain.RoleVisitor {
			return nil, nil, apperrors.NewForbidden("account role not allowed on this endpoint")
		}
		if err := s.checkCredentials(user, password); err != nil {
			return nil, nil, err
		}
		if err := s.users.UpdateLastActive(ctx, user.ID, time.Now()); err != nil {
			return nil, nil, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.createUser(ctx, account, password, domain.RoleVisitor, nickname)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	s.revokePresented(ctx, presentedToken)

	pair, err := s.IssueTokenPair(user.ID, clientIP)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return user, pair, nil
}

// Login authenticates a non-visitor account.
func (s *AuthService) Login(ctx context.Context, account, password, clientIP, presentedToken string) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if user.Role == domain.RoleVisitor {
		return nil, nil, apperrors.NewForbidden("account role not allowed on this endpoint")
	}
	if err := s.checkCredentials(user, password); err != nil {
		return nil, nil, err
	}
	if err := s.users.UpdateLastActive(ctx, user.ID, time.Now()); err != nil {
		return nil, nil, err
	}

	s.revokePresented(ctx, presentedToken)

	pair, err := s.IssueTokenPair(user.ID, clientIP)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return user, pair, nil
}

// Register creates a new non-visitor account, defaulting to member.
func (s *AuthService) Register(ctx context.Context, account, password string, role domain.Role, clientIP string) (*domain.User, *TokenPair, error) {
	if role == "" {
		role = domain.RoleMember
	}
	if !domain.ValidRole(role) {
		return nil, nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
	}

	if _, err := s.users.GetByAccount(ctx, account); err == nil {
		return nil, nil, apperrors.NewConflict("account already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	user, err := s.createUser(ctx, account, password, role, "")
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.IssueTokenPair(user.ID, clientIP)
	if err != nil {
		return nil, nil, err
	}
	user.PasswordHash = ""
	return user, pair, nil
}

// Logout blacklists the current token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, rawToken string) {
	s.revokePresented(ctx, rawToken)
}

// ChangePassword stores a new password hash and retires the token the
// change was requested with.
func (s *AuthService) ChangePassword(ctx context.Context, userID, newPassword, rawToken string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.revokePresented(ctx, rawToken)
	return nil
}

// RefreshAccessToken mints a new access token for a caller whose refresh
// token already passed the guard. The refresh token stays valid until its
// own expiry or an explicit blacklisting.
func (s *AuthService) RefreshAccessToken(userID, clientIP string) (string, time.Time, error) {
	return s.tokens.IssueAccess(userID, clientIP)
}

// UpdatePermissions changes a user's role and applies capability grants and
// revocations. Grants are deduplicated; the resulting set may diverge from
// the role defaults.
func (s *AuthService) UpdatePermissions(ctx context.Context, userID string, role *domain.Role, add, remove []string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if role != nil {
		if !domain.ValidRole(*role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*role)})
		}
		user.Role = *role
	}

	for _, p := range add {
		if !user.HasPermission(p) {
			user.Permissions = append(user.Permissions, p)
		}
	}
	if len(remove) > 0 {
		removed := make(map[string]struct{}, len(remove))
		for _, p := range remove {
			removed[p] = struct{}{}
		}
		kept := user.Permissions[:0]
		for _, p := range user.Permissions {
			if _, drop := removed[p]; !drop {
				kept = append(kept, p)
			}
		}
		user.Permissions = kept
	}

	if err := s.users.UpdatePermissions(ctx, user.ID, user.Role, user.Permissions); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// SearchUsers finds accounts by account name or nickname.
func (s *AuthService) SearchUsers(ctx context.Context, keyword string, limit int) ([]domain.User, error) {
	return s.users.Search(ctx, keyword, limit)
}

// UpdateProfile merges profile fields into the stored user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, profile domain.Profile) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}

	if profile.Email != nil {
		user.Profile.Email = profile.Email
	}
	if profile.Phone != nil {
		user.Profile.Phone = profile.Phone
	}
	if profile.Nickname != "" {
		user.Profile.Nickname = profile.Nickname
	}
	if profile.Bio != nil {
		user.Profile.Bio = profile.Bio
	}
	if profile.Gender != "" {
		user.Profile.Gender = profile.Gender
	}
	if profile.Avatar != "" {
		user.Profile.Avatar = profile.Avatar
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// EnsureSuperAdmin seeds the initial super admin when none exists.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, account, password string) error {
	count, err := s.users.CountByRole(ctx, domain.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.createUser(ctx, account, password, domain.RoleSuperAdmin, ""); err != nil {
		return err
	}
	s.logger.Info("super admin account created", zap.String("account", account))
	return nil
}

func (s *AuthService) createUser(ctx context.Context, account, password string, role domain.Role, nickname string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Account:      account,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
		Profile:      domain.Profile{Nickname: nickname},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventUserRegistered,
			ActorID:   user.ID,
			Timestamp: time.Now(),
			Payload:   events.UserRegisteredPayload{Account: user.Account, Role: string(user.Role)},
		})
	}
	return user, nil
}

// checkCredentials verifies the password and rejects suspended accounts at
// issuance time, before any token is minted.
func (s *AuthService) checkCredentials(user *domain.User, password string) error {
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status == domain.UserStatusSuspended {
		return apperrors.NewForbidden("account suspended")
	}
	return nil
}

// revokePresented blacklists a token for its remaining lifetime when the
// claims are still readable, otherwise for the configured default.
func (s *AuthService) revokePresented(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}
	for _, kind := range []auth.TokenKind{auth.TokenKindAccess, auth.TokenKindRefresh} {
		if claims, err := s.tokens.Verify(kind, rawToken); err == nil {
			s.blacklist.RevokeFor(ctx, rawToken, s.tokens.RemainingLifetime(claims))
			return
		}
	}
	s.blacklist.Revoke(ctx, rawToken)
}
