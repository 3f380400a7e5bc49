package auth

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const blacklistKeyPrefix = "blacklist:"

// fallbackExpiry is used when a configured TTL string cannot be parsed.
const fallbackExpiry = 7 * 24 * time.Hour

var expiryPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiry converts a duration string of the form "<int><s|m|h|d>" into
// a duration. Unparseable input falls back to seven days; callers that want
// to log the degradation should compare against the second return value.
func ParseExpiry(expires string) (time.Duration, bool) {
	match := expiryPattern.FindStringSubmatch(expires)
	if match == nil {
		return fallbackExpiry, false
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return fallbackExpiry, false
	}

	var unit time.Duration
	switch match[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(value) * unit, true
}

// Blacklist records revoked tokens in an external cache for the remainder of
// their natural lifetime. Both operations fail open: when the cache is
// unreachable, authentication availability wins over strict revocation, and
// the degradation is logged for operators.
type Blacklist struct {
	store      TokenStore
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewBlacklist builds a blacklist over the given store. defaultExpires uses
// the "<int><s|m|h|d>" format and applies when callers cannot compute a
// token's remaining lifetime.
func NewBlacklist(store TokenStore, defaultExpires string, logger *zap.Logger) *Blacklist {
	ttl, ok := ParseExpiry(defaultExpires)
	if !ok {
		logger.Warn("invalid blacklist TTL, using 7 day fallback", zap.String("value", defaultExpires))
	}
	return &Blacklist{store: store, defaultTTL: ttl, logger: logger}
}

// IsRevoked reports whether the raw token string was blacklisted. Cache
// errors degrade to false.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) bool {
	_, found, err := b.store.Get(ctx, blacklistKeyPrefix+token)
	if err != nil {
		b.logger.Warn("blacklist lookup failed, treating token as not revoked", zap.Error(err))
		return false
	}
	return found
}

// Revoke blacklists the token for the configured default lifetime. Returns
// false when the cache was unreachable; never an error.
func (b *Blacklist) Revoke(ctx context.Context, token string) bool {
	return b.RevokeFor(ctx, token, b.defaultTTL)
}

// RevokeFor blacklists the token for the given duration, typically the
// remaining validity of the specific token. Revoking an already revoked
// token refreshes the entry and reports success.
func (b *Blacklist) RevokeFor(ctx context.Context, token string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	if err := b.store.Set(ctx, blacklistKeyPrefix+token, "true", ttl); err != nil {
		b.logger.Warn("blacklist insert failed", zap.Error(err))
		return false
	}
	return true
}
