package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Arhamdeez/envVault/internal/blobstore"
	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
	"github.com/Arhamdeez/envVault/internal/pkg/timeutil"
	"github.com/Arhamdeez/envVault/internal/repo"
)

type FileService struct {
	db     *sql.DB
	files  *repo.FileRepo
	shares *repo.ShareRepo
	audits *repo.AuditRepo
	store  blobstore.Store
}

func NewFileService(db *sql.DB, files *repo.FileRepo, shares *repo.ShareRepo,
	audits *repo.AuditRepo, store blobstore.Store) *FileService {
	return &FileService{db: db, files: files, shares: shares, audits: audits, store: store}
}

type FileCreateInput struct {
	// Ciphertext is already encrypted on the client; the server never sees
	// the key, only this blob and the IV it should hand back on download.
	Ciphertext     []byte
	IV             string
	FilenameMasked string
	ExpiresAt      int64
	SingleUse      bool
}

func (s *FileService) Create(ctx context.Context, ownerID string, input FileCreateInput) (*model.File, error) {
	// Storage keys are server-chosen opaque identifiers, never derived from a
	// client filename.
	storageKey := fmt.Sprintf("%s-%s", ownerID, uuid.New())
	if err := s.store.Put(ctx, storageKey, input.Ciphertext); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	now := timeutil.NowUnix()
	file := &model.File{
		ID:             newID(),
		OwnerID:        ownerID,
		StorageKey:     storageKey,
		FilenameMasked: input.FilenameMasked,
		IV:             input.IV,
		Size:           int64(len(input.Ciphertext)),
		ExpiresAt:      input.ExpiresAt,
		SingleUse:      input.SingleUse,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, storageKey); delErr != nil {
			logutil.GetLogger(ctx).Warn("orphan blob after failed file insert",
				zap.String("storage_key", storageKey), zap.Error(delErr))
		}
		return nil, err
	}
	return file, nil
}

func (s *FileService) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}
	return file, nil
}

type FileWithShares struct {
	*model.File
	Shares []*repo.ShareWithDownloads `json:"shares"`
}

func (s *FileService) List(ctx context.Context, ownerID string) ([]*FileWithShares, error) {
	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items := make([]*FileWithShares, 0, len(files))
	for _, file := range files {
		shares, err := s.shares.ListByFile(ctx, file.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, &FileWithShares{File: file, Shares: shares})
	}
	return items, nil
}

// Delete cascades: audit entries, then shares, then the file row, in one
// transaction; the blob is removed after commit. A blob deletion failure
// leaves an orphan object, never a dangling registry row.
func (s *FileService) Delete(ctx context.Context, ownerID, fileID string) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return appErr.ErrForbidden
	}
	return s.remove(ctx, file.ID, file.StorageKey)
}

// PurgeExpiredBefore removes files whose expiry passed before cutoff, with
// the same cascade as an owner delete. Storage reclamation only; request-time
// gating already denies these files regardless.
func (s *FileService) PurgeExpiredBefore(ctx context.Context, cutoff int64) (int, error) {
	expired, err := s.files.ListExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, file := range expired {
		if err := s.remove(ctx, file.ID, file.StorageKey); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *FileService) remove(ctx context.Context, fileID, storageKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := s.audits.DeleteByFile(ctx, tx, fileID); err != nil {
		return err
	}
	if err := s.shares.DeleteByFile(ctx, tx, fileID); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, tx, fileID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}

	if err := s.store.Delete(ctx, storageKey); err != nil {
		logutil.GetLogger(ctx).Warn("blob delete failed after file removal",
			zap.String("file_id", fileID), zap.String("storage_key", storageKey), zap.Error(err))
	}
	return nil
}
