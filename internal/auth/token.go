package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects which signing key and lifetime a token uses.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Verification failures form a closed set so callers can branch with
// errors.Is instead of inspecting error text.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrUnknownTokenKind = errors.New("unknown token kind")
)

// Claims describes the JWT payload. Access tokens record the client IP they
// were issued to; refresh tokens carry a unique identifier per issuance.
type Claims struct {
	BoundIP string `json:"bound_ip,omitempty"`
	jwt.RegisteredClaims
}

type kindConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenManager issues and verifies signed bearer tokens. It is stateless:
// revocation is the blacklist's concern, never checked here.
type TokenManager struct {
	kinds map[TokenKind]kindConfig
	now   func() time.Time
}

// NewTokenManager builds a manager with independent access and refresh keys.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		kinds: map[TokenKind]kindConfig{
			TokenKindAccess:  {secret: []byte(accessSecret), ttl: accessTTL},
			TokenKindRefresh: {secret: []byte(refreshSecret), ttl: refreshTTL},
		},
		now: time.Now,
	}
}

// IssueAccess signs a short-lived token for the subject, recording the
// client IP it was issued to.
func (tm *TokenManager) IssueAccess(subjectID, boundIP string) (string, time.Time, error) {
	return tm.issue(TokenKindAccess, subjectID, boundIP, "")
}

// IssueRefresh signs a long-lived token carrying a fresh unique identifier.
func (tm *TokenManager) IssueRefresh(subjectID string) (string, time.Time, error) {
	return tm.issue(TokenKindRefresh, subjectID, "", uuid.NewString())
}

func (tm *TokenManager) issue(kind TokenKind, subjectID, boundIP, tokenID string) (string, time.Time, error) {
	cfg, ok := tm.kinds[kind]
	if !ok {
		return "", time.Time{}, ErrUnknownTokenKind
	}

	now := tm.now()
	expiresAt := now.Add(cfg.ttl)
	claims := &Claims{
		BoundIP: boundIP,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and validity window against the kind-specific key
// and returns the decoded claims. The validity window is exclusive: a token
// inspected exactly at its expiry instant is already expired.
func (tm *TokenManager) Verify(kind TokenKind, tokenStr string) (*Claims, error) {
	cfg, ok := tm.kinds[kind]
	if !ok {
		return nil, ErrUnknownTokenKind
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.ExpiresAt != nil && !tm.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// RemainingLifetime returns how long the verified claims stay valid from now.
// Used to size blacklist entries so they outlive the token by nothing.
func (tm *TokenManager) RemainingLifetime(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(tm.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
