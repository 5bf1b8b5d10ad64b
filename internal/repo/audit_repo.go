package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Arhamdeez/envVault/internal/model"
	"github.com/Arhamdeez/envVault/internal/pkg/dbutil"
)

// AuditRepo is append-only: entries are never updated, and deleted only as a
// cascade of file deletion.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append takes a Queryer so the access engine can write the entry inside the
// same transaction that checked the usage count.
func (r *AuditRepo) Append(ctx context.Context, q dbutil.Queryer, entry *model.AuditLogEntry) error {
	data := map[string]interface{}{
		"share_id": entry.ShareID,
		"action":   entry.Action,
		"ip":       entry.IP,
		"ts":       entry.Ts,
	}
	sqlStr, args, err := builder.BuildInsert("audit_logs", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = q.ExecContext(ctx, sqlStr, args...)
	return err
}

// CountByAction is the authoritative usage counter for a share. Within the
// download transaction it sees all committed appends plus the transaction's
// own writes.
func (r *AuditRepo) CountByAction(ctx context.Context, q dbutil.Queryer, shareID, action string) (int64, error) {
	sqlStr := `SELECT COUNT(*) FROM audit_logs WHERE share_id = ? AND action = ?`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{shareID, action})
	var count int64
	if err := q.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListByFile returns entries across all of a file's shares, newest first.
func (r *AuditRepo) ListByFile(ctx context.Context, fileID string) ([]*model.AuditLogEntry, error) {
	sqlStr := `
		SELECT a.id, a.share_id, a.action, a.ip, a.ts
		FROM audit_logs a
		JOIN shares s ON s.id = a.share_id
		WHERE s.file_id = ?
		ORDER BY a.ts DESC, a.id DESC
	`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{fileID})
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	entries := make([]*model.AuditLogEntry, 0)
	for rows.Next() {
		var entry model.AuditLogEntry
		if err := rows.Scan(&entry.ID, &entry.ShareID, &entry.Action, &entry.IP, &entry.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *AuditRepo) DeleteByFile(ctx context.Context, q dbutil.Queryer, fileID string) error {
	sqlStr := `DELETE FROM audit_logs WHERE share_id IN (SELECT id FROM shares WHERE file_id = ?)`
	sqlStr, args := dbutil.Finalize(sqlStr, []interface{}{fileID})
	_, err := q.ExecContext(ctx, sqlStr, args...)
	return err
}
