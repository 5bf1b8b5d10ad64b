package service

import (
	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

// evaluateGate decides whether a download through the share is currently
// permitted. Pure function over stored facts; expiry and exhaustion are
// derived here each request, never persisted as state.
//
// Check priority fixes the user-facing denial reason: revoked, then share
// expiry, then file expiry, then usage limit, then single-use. The binary
// grant/deny outcome does not depend on the order.
//
// downloads must come from the same transaction that will append the audit
// entry, otherwise two racing requests can both see count < limit.
func evaluateGate(share *model.Share, file *model.File, downloads int64, now int64) error {
	if share.Revoked {
		return appErr.ErrShareRevoked
	}
	if share.ExpiresAt > 0 && now > share.ExpiresAt {
		return appErr.ErrShareExpired
	}
	if file.ExpiresAt > 0 && now > file.ExpiresAt {
		return appErr.ErrFileExpired
	}
	if share.UsageLimit > 0 && downloads >= share.UsageLimit {
		return appErr.ErrUsageExhausted
	}
	if file.SingleUse && file.AccessCount > 0 {
		return appErr.ErrUsageExhausted
	}
	return nil
}
