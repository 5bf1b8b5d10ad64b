package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Service issues bearer share tokens and digests them for storage. Only the
// keyed digest is ever persisted; verifying a presented token recomputes the
// digest under the same server secret.
type Service struct {
	secret []byte
}

func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token hmac secret is required")
	}
	return &Service{secret: []byte(secret)}, nil
}

// Issue returns a URL-safe token with 256 bits of entropy. Uniqueness is
// probabilistic; the unique constraint on stored digests is the backstop.
func (s *Service) Issue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest is a keyed one-way function over the token (HMAC-SHA256, hex). A
// keyed hash rather than a bare hash so a leaked shares table cannot be
// attacked with precomputed tables.
func (s *Service) Digest(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time so a mismatch position cannot leak digest
// prefixes through timing.
func (s *Service) Verify(token, digest string) bool {
	return hmac.Equal([]byte(s.Digest(token)), []byte(digest))
}
