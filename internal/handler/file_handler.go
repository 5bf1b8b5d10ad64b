package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Arhamdeez/envVault/internal/pkg/response"
	"github.com/Arhamdeez/envVault/internal/service"
)

// uploadMaxBytes bounds the decoded ciphertext, not the JSON envelope.
const uploadMaxBytes = 64 << 20

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

type uploadFileRequest struct {
	EncryptedBlob  string `json:"encrypted_blob"`
	IV             string `json:"iv"`
	FilenameMasked string `json:"filename_masked"`
	ExpiresAt      int64  `json:"expires_at"`
	SingleUse      bool   `json:"single_use"`
}

func (h *FileHandler) Upload(c *gin.Context) {
	var req uploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if strings.TrimSpace(req.FilenameMasked) == "" || req.IV == "" || req.EncryptedBlob == "" {
		response.Error(c, http.StatusBadRequest, "invalid", "encrypted_blob, iv and filename_masked are required")
		return
	}
	ciphertext, err := base64.StdEncoding.DecodeString(req.EncryptedBlob)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "encrypted_blob must be base64")
		return
	}
	if len(ciphertext) == 0 || len(ciphertext) > uploadMaxBytes {
		response.Error(c, http.StatusBadRequest, "invalid", "encrypted blob size out of range")
		return
	}
	file, err := h.files.Create(c.Request.Context(), getUserID(c), service.FileCreateInput{
		Ciphertext:     ciphertext,
		IV:             req.IV,
		FilenameMasked: req.FilenameMasked,
		ExpiresAt:      req.ExpiresAt,
		SingleUse:      req.SingleUse,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"id":              file.ID,
		"filename_masked": file.FilenameMasked,
		"ctime":           file.Ctime,
	})
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.files.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, files)
}

// Metadata returns file facts only, never blob content.
func (h *FileHandler) Metadata(c *gin.Context) {
	file, err := h.files.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, file)
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
