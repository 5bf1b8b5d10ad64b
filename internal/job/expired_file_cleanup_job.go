package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Arhamdeez/envVault/internal/service"
)

// ExpiredFileCleanupJob reclaims storage for files whose absolute expiry is
// long past. Access gating never depends on this job: expiry is evaluated per
// request, the sweep only deletes rows and blobs that could no longer be
// served anyway. The grace period keeps just-expired files around so owners
// can still inspect their audit trail for a while.
type ExpiredFileCleanupJob struct {
	files *service.FileService
	grace time.Duration
}

func NewExpiredFileCleanupJob(files *service.FileService, grace time.Duration) *ExpiredFileCleanupJob {
	return &ExpiredFileCleanupJob{files: files, grace: grace}
}

func (j *ExpiredFileCleanupJob) Name() string {
	return "expired_file_cleanup"
}

func (j *ExpiredFileCleanupJob) Run(ctx context.Context) error {
	grace := j.grace
	if grace <= 0 {
		grace = 7 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-grace).Unix()
	removed, err := j.files.PurgeExpiredBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired files purged", zap.Int("count", removed))
	}
	return nil
}
