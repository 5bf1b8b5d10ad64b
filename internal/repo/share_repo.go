package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Arhamdeez/envVault/internal/model"
	"github.com/Arhamdeez/envVault/internal/pkg/dbutil"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

var shareColumns = []string{
	"id", "file_id", "token_digest", "expires_at", "usage_limit", "revoked", "ctime", "mtime",
}

type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

// Create inserts the share. A digest collision trips the unique constraint and
// is surfaced as a conflict, never an overwrite.
func (r *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	data := map[string]interface{}{
		"id":           share.ID,
		"file_id":      share.FileID,
		"token_digest": share.TokenDigest,
		"expires_at":   share.ExpiresAt,
		"usage_limit":  share.UsageLimit,
		"revoked":      share.Revoked,
		"ctime":        share.Ctime,
		"mtime":        share.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("shares", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ShareRepo) GetByTokenDigest(ctx context.Context, digest string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"token_digest": digest})
}

func (r *ShareRepo) GetByID(ctx context.Context, shareID string) (*model.Share, error) {
	return r.getOne(ctx, map[string]interface{}{"id": shareID})
}

func (r *ShareRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Share, error) {
	sqlStr, args, err := builder.BuildSelect("shares", where, shareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return scanOneShare(r.db.QueryContext(ctx, sqlStr, args...))
}

// GetByIDForUpdate locks the share row; concurrent downloads against the same
// token serialize here.
func (r *ShareRepo) GetByIDForUpdate(ctx context.Context, q dbutil.Queryer, shareID string) (*model.Share, error) {
	sqlStr := `SELECT id, file_id, token_digest, expires_at, usage_limit, revoked, ctime, mtime
		FROM shares WHERE id = ? FOR UPDATE`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{shareID})
	return scanOneShare(q.QueryContext(ctx, sqlStr, args...))
}

// Revoke is idempotent; revoking an already revoked share is a no-op.
func (r *ShareRepo) Revoke(ctx context.Context, shareID string, mtime int64) error {
	sqlStr := `UPDATE shares SET revoked = TRUE, mtime = ? WHERE id = ? AND revoked = FALSE`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{mtime, shareID})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

type ShareWithDownloads struct {
	model.Share
	Downloads int64 `json:"downloads"`
}

func (r *ShareRepo) ListByFile(ctx context.Context, fileID string) ([]*ShareWithDownloads, error) {
	sqlStr := `
		SELECT s.id, s.file_id, s.token_digest, s.expires_at, s.usage_limit, s.revoked, s.ctime, s.mtime,
			COUNT(a.id) FILTER (WHERE a.action = ?) AS downloads
		FROM shares s
		LEFT JOIN audit_logs a ON a.share_id = s.id
		WHERE s.file_id = ?
		GROUP BY s.id
		ORDER BY s.ctime DESC
	`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{model.AuditActionDownload, fileID})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]*ShareWithDownloads, 0)
	for rows.Next() {
		var item ShareWithDownloads
		if err := rows.Scan(&item.ID, &item.FileID, &item.TokenDigest, &item.ExpiresAt,
			&item.UsageLimit, &item.Revoked, &item.Ctime, &item.Mtime, &item.Downloads); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *ShareRepo) DeleteByFile(ctx context.Context, q dbutil.Queryer, fileID string) error {
	sqlStr, args := dbutil.Finalize(`DELETE FROM shares WHERE file_id = ?`, []interface{}{fileID})
	_, err := q.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanOneShare(rows *sql.Rows, err error) (*model.Share, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var share model.Share
	if err := rows.Scan(&share.ID, &share.FileID, &share.TokenDigest, &share.ExpiresAt,
		&share.UsageLimit, &share.Revoked, &share.Ctime, &share.Mtime); err != nil {
		return nil, err
	}
	return &share, nil
}
