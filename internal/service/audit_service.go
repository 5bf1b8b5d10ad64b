package service

import (
	"context"

	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
	"github.com/Arhamdeez/envVault/internal/repo"
)

type AuditService struct {
	files  *repo.FileRepo
	audits *repo.AuditRepo
}

func NewAuditService(files *repo.FileRepo, audits *repo.AuditRepo) *AuditService {
	return &AuditService{files: files, audits: audits}
}

// ListByFile returns the access trail for a file, scoped through its shares.
// Owner-only.
func (s *AuditService) ListByFile(ctx context.Context, ownerID, fileID string) ([]*model.AuditLogEntry, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}
	return s.audits.ListByFile(ctx, fileID)
}
