package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Arhamdeez/envVault/internal/model"
	"github.com/Arhamdeez/envVault/internal/pkg/dbutil"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

var fileColumns = []string{
	"id", "owner_id", "storage_key", "filename_masked", "iv", "size",
	"expires_at", "single_use", "access_count", "ctime", "mtime",
}

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":              file.ID,
		"owner_id":        file.OwnerID,
		"storage_key":     file.StorageKey,
		"filename_masked": file.FilenameMasked,
		"iv":              file.IV,
		"size":            file.Size,
		"expires_at":      file.ExpiresAt,
		"single_use":      file.SingleUse,
		"access_count":    file.AccessCount,
		"ctime":           file.Ctime,
		"mtime":           file.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
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

func (r *FileRepo) GetByID(ctx context.Context, fileID string) (*model.File, error) {
	where := map[string]interface{}{"id": fileID}
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return scanOneFile(r.db.QueryContext(ctx, sqlStr, args...))
}

// GetByIDForUpdate locks the file row for the rest of the transaction. The
// access engine takes this lock after the share lock, never before, so lock
// order stays fixed across concurrent downloads.
func (r *FileRepo) GetByIDForUpdate(ctx context.Context, q dbutil.Queryer, fileID string) (*model.File, error) {
	sqlStr := `SELECT id, owner_id, storage_key, filename_masked, iv, size,
		expires_at, single_use, access_count, ctime, mtime
		FROM files WHERE id = ? FOR UPDATE`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{fileID})
	return scanOneFile(q.QueryContext(ctx, sqlStr, args...))
}

func (r *FileRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.File, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	files := make([]*model.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ListExpiredBefore returns files whose absolute expiry passed before cutoff.
// Used only by the storage reclamation job; access gating never consults it.
func (r *FileRepo) ListExpiredBefore(ctx context.Context, cutoff int64) ([]*model.File, error) {
	sqlStr := `SELECT id, owner_id, storage_key, filename_masked, iv, size,
		expires_at, single_use, access_count, ctime, mtime
		FROM files WHERE expires_at > 0 AND expires_at < ?`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{cutoff})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	files := make([]*model.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (r *FileRepo) IncrementAccessCount(ctx context.Context, q dbutil.Queryer, fileID string, mtime int64) error {
	sqlStr := `UPDATE files SET access_count = access_count + 1, mtime = ? WHERE id = ?`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{mtime, fileID})
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, q dbutil.Queryer, fileID string) error {
	sqlStr, args := dbutil.Finalize(`DELETE FROM files WHERE id = ?`, []interface{}{fileID})
	_, err := q.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanOneFile(rows *sql.Rows, err error) (*model.File, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanFile(rows)
}

func scanFile(rows *sql.Rows) (*model.File, error) {
	var file model.File
	if err := rows.Scan(&file.ID, &file.OwnerID, &file.StorageKey, &file.FilenameMasked,
		&file.IV, &file.Size, &file.ExpiresAt, &file.SingleUse, &file.AccessCount,
		&file.Ctime, &file.Mtime); err != nil {
		return nil, err
	}
	return &file, nil
}
