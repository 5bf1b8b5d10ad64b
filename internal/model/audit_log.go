package model

const AuditActionDownload = "download"

// AuditLogEntry is append-only. The count of "download" entries per share is
// the authoritative usage counter for that share's usage limit.
type AuditLogEntry struct {
	ID      int64  `json:"id"`
	ShareID string `json:"share_id"`
	Action  string `json:"action"`
	IP      string `json:"ip"`
	Ts      int64  `json:"ts"`
}
