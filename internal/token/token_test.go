package token

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("")
	require.Error(t, err)
}

func TestIssueEntropyAndEncoding(t *testing.T) {
	svc, err := NewService("test-secret")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := svc.Issue()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		require.Len(t, raw, 32)

		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestDigestDeterministicAndKeyed(t *testing.T) {
	svc1, err := NewService("secret-one")
	require.NoError(t, err)
	svc2, err := NewService("secret-two")
	require.NoError(t, err)

	tok, err := svc1.Issue()
	require.NoError(t, err)

	require.Equal(t, svc1.Digest(tok), svc1.Digest(tok))
	require.NotEqual(t, svc1.Digest(tok), svc2.Digest(tok))
	require.Len(t, svc1.Digest(tok), 64)
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	svc, err := NewService("test-secret")
	require.NoError(t, err)

	tok, err := svc.Issue()
	require.NoError(t, err)
	digest := svc.Digest(tok)

	require.True(t, svc.Verify(tok, digest))

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	for i := range raw {
		flipped := make([]byte, len(raw))
		copy(flipped, raw)
		flipped[i] ^= 0x01
		require.False(t, svc.Verify(base64.RawURLEncoding.EncodeToString(flipped), digest))
	}
}
