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
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// ref.expiry.base64(path).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a SignedURLSigner.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs relPath on behalf of ref (an export id).
func (s *SignedURLSigner) Generate(ref, relPath string) (string, time.Time, error) {
	if ref == "" || relPath == "" || strings.Contains(ref, ".") {
		return "", time.Time{}, fmt.Errorf("ref and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	token := strings.Join([]string{ref, exp, encodedPath, s.sign(ref, exp, encodedPath)}, ".")
	return token, expiresAt, nil
}

// Parse verifies the token. allowExpired skips the expiry check for cleanup jobs.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (ref, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	ref, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(ref, exp, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	expiresAt = time.Unix(unix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return ref, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(ref, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(ref + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
