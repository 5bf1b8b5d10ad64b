package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Arhamdeez/envVault/internal/pkg/response"
	"github.com/Arhamdeez/envVault/internal/service"
)

type AuditHandler struct {
	audits *service.AuditService
}

func NewAuditHandler(audits *service.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

func (h *AuditHandler) ListByFile(c *gin.Context) {
	entries, err := h.audits.ListByFile(c.Request.Context(), getUserID(c), c.Param("fileId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entries)
}
