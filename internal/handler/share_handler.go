package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Arhamdeez/envVault/internal/pkg/response"
	"github.com/Arhamdeez/envVault/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type createShareRequest struct {
	FileID     string `json:"file_id"`
	ExpiresAt  int64  `json:"expires_at"`
	UsageLimit int64  `json:"usage_limit"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if req.FileID == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "file_id is required")
		return
	}
	if req.UsageLimit < 0 {
		response.Error(c, http.StatusBadRequest, "invalid", "usage_limit must be positive")
		return
	}
	created, err := h.shares.Create(c.Request.Context(), getUserID(c), service.CreateShareInput{
		FileID:     req.FileID,
		ExpiresAt:  req.ExpiresAt,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	// The only moment the plaintext token ever leaves the server.
	response.Success(c, created)
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	if err := h.shares.Revoke(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *ShareHandler) ListByFile(c *gin.Context) {
	items, err := h.shares.ListByFile(c.Request.Context(), getUserID(c), c.Param("fileId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

// Download is the unauthenticated token-gated path. The response carries the
// ciphertext and IV; the decryption key travels out-of-band between owner and
// recipient and never appears here.
func (h *ShareHandler) Download(c *gin.Context) {
	result, err := h.shares.DownloadByToken(c.Request.Context(), c.Param("token"), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"encrypted_blob":  base64.StdEncoding.EncodeToString(result.Ciphertext),
		"iv":              result.IV,
		"filename_masked": result.FilenameMasked,
		"size":            result.Size,
	})
}
