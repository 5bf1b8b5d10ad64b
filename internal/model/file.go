package model

// File is one client-encrypted blob. The server stores ciphertext plus the IV
// the client used; the decryption key never reaches the server.
type File struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	StorageKey     string `json:"-"`
	FilenameMasked string `json:"filename_masked"`
	IV             string `json:"iv"`
	Size           int64  `json:"size"`
	ExpiresAt      int64  `json:"expires_at"`
	SingleUse      bool   `json:"single_use"`
	AccessCount    int64  `json:"access_count"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}
