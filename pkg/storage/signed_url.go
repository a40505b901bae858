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

// DownloadClaims is the content of a signed download token.
type DownloadClaims struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC signed download tokens for stored artifacts.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl means one day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token for jobID and path.
func (s *SignedURLSigner) Generate(jobID, path string) (string, time.Time, error) {
	if jobID == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("job id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	sig := s.sign(jobID, exp, encodedPath)
	return strings.Join([]string{jobID, exp, encodedPath, sig}, "."), time.Unix(expiresAt.Unix(), 0).UTC(), nil
}

// Parse verifies token. Expired tokens are rejected unless allowExpired is set,
// which cleanup uses to locate stale files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (DownloadClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadClaims{}, ErrTokenMalformed
	}
	jobID, exp, encodedPath, sig := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(jobID, exp, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return DownloadClaims{}, ErrTokenSignature
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return DownloadClaims{}, ErrTokenMalformed
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return DownloadClaims{}, ErrTokenMalformed
	}
	claims := DownloadClaims{JobID: jobID, Path: string(rawPath), ExpiresAt: time.Unix(expUnix, 0).UTC()}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) sign(jobID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
