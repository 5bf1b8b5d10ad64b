package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Arhamdeez/envVault/internal/blobstore"
	"github.com/Arhamdeez/envVault/internal/model"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
	"github.com/Arhamdeez/envVault/internal/pkg/timeutil"
	"github.com/Arhamdeez/envVault/internal/repo"
	"github.com/Arhamdeez/envVault/internal/token"
)

// ShareService is the share access engine: it owns the decision of whether a
// presented token may retrieve its blob right now, and the coupling between
// that decision and the audit trail that feeds the next decision.
type ShareService struct {
	db     *sql.DB
	files  *repo.FileRepo
	shares *repo.ShareRepo
	audits *repo.AuditRepo
	tokens *token.Service
	store  blobstore.Store
}

func NewShareService(db *sql.DB, files *repo.FileRepo, shares *repo.ShareRepo,
	audits *repo.AuditRepo, tokens *token.Service, store blobstore.Store) *ShareService {
	return &ShareService{db: db, files: files, shares: shares, audits: audits, tokens: tokens, store: store}
}

type CreateShareInput struct {
	FileID     string
	ExpiresAt  int64
	UsageLimit int64
}

type CreatedShare struct {
	ShareID string `json:"share_id"`
	// Token is the plaintext bearer token, returned exactly once. Only its
	// keyed digest is stored.
	Token string `json:"token"`
}

func (s *ShareService) Create(ctx context.Context, ownerID string, input CreateShareInput) (*CreatedShare, error) {
	file, err := s.files.GetByID(ctx, input.FileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}
	plaintext, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	share := &model.Share{
		ID:          newID(),
		FileID:      file.ID,
		TokenDigest: s.tokens.Digest(plaintext),
		ExpiresAt:   input.ExpiresAt,
		UsageLimit:  input.UsageLimit,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	return &CreatedShare{ShareID: share.ID, Token: plaintext}, nil
}

// ResolveToken maps a presented token to its share. Any unknown token is a
// bare not-found; revoked/expired/exhausted detail only exists after a digest
// match, so the error surface leaks nothing about tokens that were never
// issued.
func (s *ShareService) ResolveToken(ctx context.Context, plaintext string) (*model.Share, error) {
	share, err := s.shares.GetByTokenDigest(ctx, s.tokens.Digest(plaintext))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	return share, nil
}

type DownloadResult struct {
	Ciphertext     []byte
	IV             string
	FilenameMasked string
	Size           int64
}

// DownloadByToken performs the gated download. Gate evaluation, the audit
// append, and the access-count increment run in one transaction with the
// share and file rows locked, so at most usage_limit downloads can ever
// commit for a share and at most one for a single-use file, no matter how
// many requests race the same token. The commit of the audit append is the
// point of no return; every earlier failure rolls back without charging the
// caller.
func (s *ShareService) DownloadByToken(ctx context.Context, plaintext, ip string) (*DownloadResult, error) {
	resolved, err := s.ResolveToken(ctx, plaintext)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock order is share then file; every download takes the locks in this
	// order so two shares of one file cannot deadlock.
	share, err := s.shares.GetByIDForUpdate(ctx, tx, resolved.ID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	file, err := s.files.GetByIDForUpdate(ctx, tx, share.FileID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}

	var downloads int64
	if share.UsageLimit > 0 {
		downloads, err = s.audits.CountByAction(ctx, tx, share.ID, model.AuditActionDownload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
		}
	}

	now := timeutil.NowUnix()
	if err := evaluateGate(share, file, downloads, now); err != nil {
		return nil, err
	}

	// Fetch before the audit append: a storage failure here must not charge
	// the caller, so it rolls back the transaction. A missing blob for a
	// registered file is a server-side inconsistency, not a caller error.
	ciphertext, err := s.store.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}

	entry := &model.AuditLogEntry{
		ShareID: share.ID,
		Action:  model.AuditActionDownload,
		IP:      ip,
		Ts:      now,
	}
	if err := s.audits.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	if err := s.files.IncrementAccessCount(ctx, tx, file.ID, now); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrStorageUnavailable, err)
	}

	return &DownloadResult{
		Ciphertext:     ciphertext,
		IV:             file.IV,
		FilenameMasked: file.FilenameMasked,
		Size:           file.Size,
	}, nil
}

// Revoke marks the share revoked. Idempotent; revoked never flips back.
func (s *ShareService) Revoke(ctx context.Context, ownerID, shareID string) error {
	share, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return err
	}
	file, err := s.files.GetByID(ctx, share.FileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return appErr.ErrForbidden
	}
	return s.shares.Revoke(ctx, shareID, timeutil.NowUnix())
}

func (s *ShareService) ListByFile(ctx context.Context, ownerID, fileID string) ([]*repo.ShareWithDownloads, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, appErr.ErrForbidden
	}
	return s.shares.ListByFile(ctx, fileID)
}
