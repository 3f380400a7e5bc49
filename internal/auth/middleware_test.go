package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

type fakeLoader struct {
	users map[string]*domain.User
}

func (f *fakeLoader) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

type guardFixture struct {
	app    *fiber.App
	tokens *TokenManager
	bl     *Blacklist
	store  *memStore
}

func newGuardFixture(t *testing.T, users map[string]*domain.User) *guardFixture {
	t.Helper()

	tokens := newTestManager()
	store := newMemStore()
	bl := NewBlacklist(store, "7d", zap.NewNop())
	mw := NewMiddleware(tokens, bl, &fakeLoader{users: users})

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"message": de.Message})
		},
	})
	app.Get("/protected", mw.Handle(TokenKindAccess), func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		token, _ := TokenFromContext(c)
		return c.JSON(fiber.Map{"user_id": user.ID, "token": token})
	})
	app.Get("/admin", mw.Handle(TokenKindAccess), RequirePermission(PermArticleCreate), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	return &guardFixture{app: app, tokens: tokens, bl: bl, store: store}
}

func doRequest(t *testing.T, app *fiber.App, path, token string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var payload map[string]any
	_ = json.Unmarshal(body, &payload)
	return resp, payload
}

func TestGuardPopulatesUser(t *testing.T) {
	users := map[string]*domain.User{
		"u1": {ID: "u1", Account: "alice", Role: domain.RoleMember, PasswordHash: "secret"},
	}
	fx := newGuardFixture(t, users)

	token, _, err := fx.tokens.IssueAccess("u1", "192.0.2.1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	resp, payload := doRequest(t, fx.app, "/protected", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if payload["user_id"] != "u1" {
		t.Errorf("user_id = %v, want u1", payload["user_id"])
	}
	if payload["token"] != token {
		t.Error("raw token not attached to context")
	}
}

func TestGuardMissingToken(t *testing.T) {
	fx := newGuardFixture(t, nil)

	resp, payload := doRequest(t, fx.app, "/protected", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["message"] != "missing bearer token" {
		t.Errorf("message = %v", payload["message"])
	}
}

func TestGuardRevokedToken(t *testing.T) {
	users := map[string]*domain.User{"u1": {ID: "u1", Role: domain.RoleMember}}
	fx := newGuardFixture(t, users)

	token, _, err := fx.tokens.IssueAccess("u1", "192.0.2.1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	fx.bl.Revoke(context.Background(), token)

	resp, payload := doRequest(t, fx.app, "/protected", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	// Revocation wins over every other verdict about the token.
	if payload["message"] != "token revoked" {
		t.Errorf("message = %v, want token revoked", payload["message"])
	}
}

func TestGuardExpiredToken(t *testing.T) {
	users := map[string]*domain.User{"u1": {ID: "u1", Role: domain.RoleMember}}
	fx := newGuardFixture(t, users)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fx.tokens.now = func() time.Time { return start }
	token, _, err := fx.tokens.IssueAccess("u1", "192.0.2.1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	fx.tokens.now = time.Now

	resp, payload := doRequest(t, fx.app, "/protected", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["message"] != "token expired" {
		t.Errorf("message = %v, want token expired", payload["message"])
	}
}

func TestGuardMalformedToken(t *testing.T) {
	fx := newGuardFixture(t, nil)

	resp, payload := doRequest(t, fx.app, "/protected", "not-a-jwt")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["message"] != "token malformed" {
		t.Errorf("message = %v, want token malformed", payload["message"])
	}
}

func TestGuardUnknownUser(t *testing.T) {
	fx := newGuardFixture(t, map[string]*domain.User{})

	token, _, err := fx.tokens.IssueAccess("ghost", "192.0.2.1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	resp, payload := doRequest(t, fx.app, "/protected", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["message"] != "user not found" {
		t.Errorf("message = %v, want user not found", payload["message"])
	}
}

func TestGuardStripsPasswordHash(t *testing.T) {
	users := map[string]*domain.User{
		"u1": {ID: "u1", Role: domain.RoleMember, PasswordHash: "hash"},
	}
	fx := newGuardFixture(t, users)

	tokens := fx.tokens
	token, _, err := tokens.IssueAccess("u1", "192.0.2.1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	fx.app.Get("/check", NewMiddleware(tokens, fx.bl, &fakeLoader{users: users}).Handle(TokenKindAccess), func(c *fiber.Ctx) error {
		user, _ := UserFromContext(c)
		if user.PasswordHash != "" {
			t.Error("password hash leaked into request context")
		}
		return c.SendStatus(http.StatusOK)
	})
	resp, _ := doRequest(t, fx.app, "/check", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestPermissionGuard(t *testing.T) {
	users := map[string]*domain.User{
		"member": {ID: "member", Role: domain.RoleMember, Permissions: []string{PermArticleRead}},
		"editor": {ID: "editor", Role: domain.RoleAdmin, Permissions: []string{PermArticleCreate}},
	}
	fx := newGuardFixture(t, users)

	memberToken, _, _ := fx.tokens.IssueAccess("member", "192.0.2.1")
	resp, payload := doRequest(t, fx.app, "/admin", memberToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member status = %d, want 403", resp.StatusCode)
	}
	if payload["message"] != "permission denied" {
		t.Errorf("message = %v, want permission denied", payload["message"])
	}

	editorToken, _, _ := fx.tokens.IssueAccess("editor", "192.0.2.1")
	resp, _ = doRequest(t, fx.app, "/admin", editorToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("editor status = %d, want 200", resp.StatusCode)
	}
}
