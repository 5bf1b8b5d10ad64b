package model

// Share grants token-gated access to one file. Only the keyed digest of the
// bearer token is stored; the plaintext token is returned once at creation and
// never persisted. Revoked is monotonic, there is no un-revoke.
type Share struct {
	ID          string `json:"id"`
	FileID      string `json:"file_id"`
	TokenDigest string `json:"-"`
	ExpiresAt   int64  `json:"expires_at"`
	UsageLimit  int64  `json:"usage_limit"`
	Revoked     bool   `json:"revoked"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
