package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"syncopate/internal/shared"
)

// renewalMargin is subtracted from the token lifetime so a token is never
// handed out within a minute of expiring mid-request.
const renewalMargin = time.Minute

// ES256TokenSource signs Apple Music developer tokens with the team's ES256
// key and caches the result until it nears expiry. The cache is scoped to the
// source instance with an explicit expiry timestamp and explicit
// invalidation; there is no shared module-level token state.
type ES256TokenSource struct {
	teamID string
	keyID  string
	key    any // *ecdsa.PrivateKey
	ttl    time.Duration

	mu        sync.Mutex
	cached    string
	expiresAt time.Time
	now       func() time.Time
}

// NewES256TokenSource parses the PEM-encoded P-256 private key and returns a
// caching token source. Apple permits lifetimes up to six months; ttl
// defaults to 12 hours when zero.
func NewES256TokenSource(teamID, keyID string, pemKey []byte, ttl time.Duration) (*ES256TokenSource, error) {
	if teamID == "" || keyID == "" {
		return nil, fmt.Errorf("%w: missing Apple team ID or key ID", shared.ErrMissingCredentials)
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Apple private key: %w", err)
	}

	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &ES256TokenSource{
		teamID: teamID,
		keyID:  keyID,
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// DeveloperToken returns the cached token, signing a fresh one when the cache
// is empty or within the renewal margin of its expiry.
func (s *ES256TokenSource) DeveloperToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != "" && now.Before(s.expiresAt.Add(-renewalMargin)) {
		return s.cached, nil
	}

	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	s.cached = signed
	s.expiresAt = expiresAt
	return signed, nil
}

// Invalidate discards the cached token so the next call signs a fresh one.
func (s *ES256TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = ""
	s.expiresAt = time.Time{}
}

// StaticTokenSource wraps a pre-signed developer token (useful for tests and
// for tokens minted out-of-band).
type StaticTokenSource string

// DeveloperToken returns the wrapped token.
func (s StaticTokenSource) DeveloperToken() (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty developer token", shared.ErrMissingCredentials)
	}
	return string(s), nil
}
