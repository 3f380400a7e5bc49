package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 30*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	token, expiresAt, err := tm.IssueAccess("user-1", "203.0.113.7")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expiry in the past: %v", expiresAt)
	}

	claims, err := tm.Verify(TokenKindAccess, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.BoundIP != "203.0.113.7" {
		t.Errorf("bound IP = %q, want 203.0.113.7", claims.BoundIP)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tm := newTestManager()

	first, _, err := tm.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	second, _, err := tm.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	claims, err := tm.Verify(TokenKindRefresh, first)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.ID == "" {
		t.Error("refresh token missing unique identifier")
	}

	secondClaims, err := tm.Verify(TokenKindRefresh, second)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.ID == secondClaims.ID {
		t.Error("two refresh tokens share an identifier")
	}
}

func TestVerifyRejectsCrossKind(t *testing.T) {
	tm := newTestManager()

	access, _, err := tm.IssueAccess("user-1", "198.51.100.2")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := tm.Verify(TokenKindRefresh, access); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("verifying access token as refresh: err = %v, want ErrTokenMalformed", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	tm := newTestManager()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return start }

	token, _, err := tm.IssueAccess("user-1", "198.51.100.2")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	tm.now = func() time.Time { return start.Add(31 * time.Minute) }
	if _, err := tm.Verify(TokenKindAccess, token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAtExactExpiryInstant(t *testing.T) {
	tm := newTestManager()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return start }

	token, expiresAt, err := tm.IssueAccess("user-1", "198.51.100.2")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	// The validity window is exclusive at its right edge.
	tm.now = func() time.Time { return expiresAt }
	if _, err := tm.Verify(TokenKindAccess, token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	tm := newTestManager()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := tm.Verify(TokenKindAccess, token); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Verify(%q): err = %v, want ErrTokenMalformed", token, err)
		}
	}
}

func TestVerifyNotYetValidToken(t *testing.T) {
	tm := newTestManager()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := tm.Verify(TokenKindAccess, token); !errors.Is(err, ErrTokenNotYetValid) {
		t.Errorf("err = %v, want ErrTokenNotYetValid", err)
	}
}

func TestRemainingLifetime(t *testing.T) {
	tm := newTestManager()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return start }

	token, _, err := tm.IssueAccess("user-1", "198.51.100.2")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := tm.Verify(TokenKindAccess, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	tm.now = func() time.Time { return start.Add(10 * time.Minute) }
	if got := tm.RemainingLifetime(claims); got != 20*time.Minute {
		t.Errorf("remaining = %v, want 20m", got)
	}

	tm.now = func() time.Time { return start.Add(time.Hour) }
	if got := tm.RemainingLifetime(claims); got != 0 {
		t.Errorf("remaining after expiry = %v, want 0", got)
	}
}
