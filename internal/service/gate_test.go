package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

func TestEvaluateGate(t *testing.T) {
	now := int64(1000)
	base := func() (*model.Share, *model.File) {
		return &model.Share{ID: "s1", FileID: "f1"}, &model.File{ID: "f1"}
	}

	t.Run("active share passes", func(t *testing.T) {
		share, file := base()
		require.NoError(t, evaluateGate(share, file, 0, now))
	})

	t.Run("revoked", func(t *testing.T) {
		share, file := base()
		share.Revoked = true
		require.ErrorIs(t, evaluateGate(share, file, 0, now), appErr.ErrShareRevoked)
	})

	t.Run("share expired", func(t *testing.T) {
		share, file := base()
		share.ExpiresAt = now - 1
		require.ErrorIs(t, evaluateGate(share, file, 0, now), appErr.ErrShareExpired)
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		share, file := base()
		share.ExpiresAt = now
		require.NoError(t, evaluateGate(share, file, 0, now))
	})

	t.Run("file expired", func(t *testing.T) {
		share, file := base()
		file.ExpiresAt = now - 1
		require.ErrorIs(t, evaluateGate(share, file, 0, now), appErr.ErrFileExpired)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		share, file := base()
		share.UsageLimit = 3
		require.NoError(t, evaluateGate(share, file, 2, now))
		require.ErrorIs(t, evaluateGate(share, file, 3, now), appErr.ErrUsageExhausted)
		require.ErrorIs(t, evaluateGate(share, file, 4, now), appErr.ErrUsageExhausted)
	})

	t.Run("single use consumed", func(t *testing.T) {
		share, file := base()
		file.SingleUse = true
		require.NoError(t, evaluateGate(share, file, 0, now))
		file.AccessCount = 1
		require.ErrorIs(t, evaluateGate(share, file, 0, now), appErr.ErrUsageExhausted)
	})

	t.Run("revoked wins over expiry and exhaustion", func(t *testing.T) {
		share, file := base()
		share.Revoked = true
		share.ExpiresAt = now - 1
		share.UsageLimit = 1
		file.ExpiresAt = now - 1
		file.SingleUse = true
		file.AccessCount = 5
		require.ErrorIs(t, evaluateGate(share, file, 10, now), appErr.ErrShareRevoked)
	})

	t.Run("share expiry wins over usage limit", func(t *testing.T) {
		share, file := base()
		share.ExpiresAt = now - 1
		share.UsageLimit = 1
		require.ErrorIs(t, evaluateGate(share, file, 5, now), appErr.ErrShareExpired)
	})

	t.Run("file expiry wins over usage limit", func(t *testing.T) {
		share, file := base()
		file.ExpiresAt = now - 1
		share.UsageLimit = 1
		require.ErrorIs(t, evaluateGate(share, file, 5, now), appErr.ErrFileExpired)
	})
}
