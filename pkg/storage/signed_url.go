package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// SignedToken is the metadata carried by a download token.
type SignedToken struct {
	ResourceID string
	Path       string
	ExpiresAt  time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// <resource>.<unix expiry>.<base64 path>.<hex signature>.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (s *SignedURLSigner) TTL() time.Duration { return s.ttl }

// Generate signs a token for resourceID pointing at path.
func (s *SignedURLSigner) Generate(resourceID, path string) (string, time.Time, error) {
	if resourceID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("resource id and path required")
	}
	if strings.Contains(resourceID, ".") {
		return "", time.Time{}, fmt.Errorf("resource id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{resourceID, exp, encodedPath, s.sign(resourceID, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token. allowExpired skips the expiry check for cleanup routines.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedToken{}, ErrInvalidToken
	}
	resourceID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(resourceID, exp, encodedPath)), []byte(signature)) {
		return SignedToken{}, ErrInvalidToken
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return SignedToken{}, ErrInvalidToken
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedToken{}, ErrInvalidToken
	}

	parsed := SignedToken{ResourceID: resourceID, Path: string(path), ExpiresAt: time.Unix(unix, 0)}
	if !allowExpired && s.now().After(parsed.ExpiresAt) {
		return parsed, ErrTokenExpired
	}
	return parsed, nil
}

func (s *SignedURLSigner) sign(resourceID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(resourceID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
