package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	if user.Role == "" {
		user.Role = domain.RoleVisitor
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	if len(user.Permissions) == 0 {
		user.Permissions = auth.DefaultPermissionsFor(user.Role)
	}
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = time.Now()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	hash := stored.PasswordHash
	clone := *user
	clone.PasswordHash = hash
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdatePermissions(_ context.Context, id string, role domain.Role, permissions []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	user.Permissions = append([]string(nil), permissions...)
	return nil
}

func (r *fakeUserRepo) UpdateLastActive(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.LastActiveAt = at
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByAccount(_ context.Context, account string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Account == account {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *fakeUserRepo) Search(_ context.Context, keyword string, _ int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var results []domain.User
	for _, user := range r.users {
		if strings.Contains(user.Account, keyword) || strings.Contains(user.Profile.Nickname, keyword) {
			clone := *user
			clone.PasswordHash = ""
			results = append(results, clone)
		}
	}
	return results, nil
}

func (r *fakeUserRepo) DeleteInactiveVisitors(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, user := range r.users {
		if user.Role == domain.RoleVisitor && user.LastActiveAt.Before(cutoff) {
			delete(r.users, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeStore is an in-memory auth.TokenStore.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]time.Duration)}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return "true", ok, nil
}

func (s *fakeStore) Set(_ context.Context, key, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = ttl
	return nil
}

type serviceFixture struct {
	svc   *AuthService
	repo  *fakeUserRepo
	store *fakeStore
	bl    *auth.Blacklist
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	cfg := config.Config{}
	cfg.Auth.BcryptCost = 4 // keep hashing fast in tests

	repo := newFakeUserRepo()
	store := newFakeStore()
	tokens := auth.NewTokenManager("access-secret", "refresh-secret", 30*time.Minute, 24*time.Hour)
	bl := auth.NewBlacklist(store, "7d", zap.NewNop())

	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:  repo,
		Tokens:    tokens,
		Blacklist: bl,
	}, zap.NewNop())

	return &serviceFixture{svc: svc, repo: repo, store: store, bl: bl}
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	user, pair, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleMember {
		t.Errorf("role = %v, want member default", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash returned to caller")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("incomplete token pair")
	}

	stored, err := fx.repo.GetByAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByAccount: %v", err)
	}
	want := auth.DefaultPermissionsFor(domain.RoleMember)
	if len(stored.Permissions) != len(want) {
		t.Errorf("permissions = %v, want role defaults %v", stored.Permissions, want)
	}
}

func TestRegisterDuplicateAccount(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := fx.svc.Register(ctx, "alice", "other", "", "192.0.2.1")

	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "CONFLICT" {
		t.Errorf("err = %v, want CONFLICT", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, pair, err := fx.svc.Login(ctx, "alice", "s3cret", "192.0.2.1", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Account != "alice" {
		t.Errorf("account = %q", user.Account)
	}
	if pair.AccessToken == "" {
		t.Error("no access token issued")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := fx.svc.Login(ctx, "alice", "wrong", "192.0.2.1", "")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "UNAUTHORIZED" {
		t.Errorf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestLoginSuspendedAccountRejected(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	user, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	fx.repo.users[user.ID].Status = domain.UserStatusSuspended

	// Rejection happens at issuance time, not at token use.
	_, _, err = fx.svc.Login(ctx, "alice", "s3cret", "192.0.2.1", "")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "FORBIDDEN" {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestLoginRevokesPresentedToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, pair, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := fx.svc.Login(ctx, "alice", "s3cret", "192.0.2.1", pair.AccessToken); err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if !fx.bl.IsRevoked(ctx, pair.AccessToken) {
		t.Error("previous session token not blacklisted on re-login")
	}

	// The entry lives no longer than the token itself.
	ttl := fx.store.entries["blacklist:"+pair.AccessToken]
	if ttl <= 0 || ttl > 30*time.Minute {
		t.Errorf("blacklist ttl = %v, want within the token's remaining lifetime", ttl)
	}
}

func TestVisitorLoginBootstrapsAccount(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	user, pair, err := fx.svc.VisitorLogin(ctx, "drifter", "pw", "Drifter", "192.0.2.1", "")
	if err != nil {
		t.Fatalf("VisitorLogin: %v", err)
	}
	if user.Role != domain.RoleVisitor {
		t.Errorf("role = %v, want visitor", user.Role)
	}
	if pair.AccessToken == "" {
		t.Error("no access token issued")
	}

	stored, err := fx.repo.GetByAccount(ctx, "drifter")
	if err != nil {
		t.Fatalf("GetByAccount: %v", err)
	}
	want := auth.DefaultPermissionsFor(domain.RoleVisitor)
	if len(stored.Permissions) != len(want) {
		t.Errorf("permissions = %v, want visitor defaults %v", stored.Permissions, want)
	}

	// Second contact logs into the same account.
	again, _, err := fx.svc.VisitorLogin(ctx, "drifter", "pw", "", "192.0.2.1", "")
	if err != nil {
		t.Fatalf("second VisitorLogin: %v", err)
	}
	if again.ID != user.ID {
		t.Error("visitor re-login created a new account")
	}
}

func TestVisitorLoginRejectsOtherRoles(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := fx.svc.VisitorLogin(ctx, "alice", "s3cret", "", "192.0.2.1", "")
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "FORBIDDEN" {
		t.Errorf("err = %v, want FORBIDDEN", err)
	}
}

func TestChangePasswordRevokesCurrentToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	user, pair, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := fx.svc.ChangePassword(ctx, user.ID, "n3w-pass", pair.AccessToken); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if !fx.bl.IsRevoked(ctx, pair.AccessToken) {
		t.Error("token survived password change")
	}
	if _, _, err := fx.svc.Login(ctx, "alice", "n3w-pass", "192.0.2.1", ""); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, pair, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	fx.svc.Logout(ctx, pair.AccessToken)
	if !fx.bl.IsRevoked(ctx, pair.AccessToken) {
		t.Error("token not revoked on logout")
	}
}

func TestUpdatePermissions(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	user, _, err := fx.svc.Register(ctx, "alice", "s3cret", "", "192.0.2.1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	role := domain.RoleAdmin
	updated, err := fx.svc.UpdatePermissions(ctx, user.ID, &role,
		[]string{auth.PermArticleCreate, auth.PermArticleCreate, auth.PermArticleRead},
		[]string{auth.PermUserUpdate})
	if err != nil {
		t.Fatalf("UpdatePermissions: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Errorf("role = %v, want admin", updated.Role)
	}

	count := 0
	for _, p := range updated.Permissions {
		if p == auth.PermArticleCreate {
			count++
		}
		if p == auth.PermUserUpdate {
			t.Error("removed capability still present")
		}
	}
	if count != 1 {
		t.Errorf("article:create granted %d times, want once", count)
	}
}

func TestEnsureSuperAdminSeedsOnce(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	if err := fx.svc.EnsureSuperAdmin(ctx, "root", "pw"); err != nil {
		t.Fatalf("EnsureSuperAdmin: %v", err)
	}
	if err := fx.svc.EnsureSuperAdmin(ctx, "root", "pw"); err != nil {
		t.Fatalf("second EnsureSuperAdmin: %v", err)
	}

	count, _ := fx.repo.CountByRole(ctx, domain.RoleSuperAdmin)
	if count != 1 {
		t.Errorf("super admins = %d, want 1", count)
	}

	admin, err := fx.repo.GetByAccount(ctx, "root")
	if err != nil {
		t.Fatalf("GetByAccount: %v", err)
	}
	if !admin.HasPermission(auth.PermissionWildcard) {
		t.Error("seeded super admin missing wildcard permission")
	}
}
