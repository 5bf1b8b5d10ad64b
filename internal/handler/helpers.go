package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
	"github.com/Arhamdeez/envVault/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

// handleError maps the service error taxonomy onto HTTP. Gating denials carry
// distinct codes because token possession already proves some authorization;
// an unknown token stays a bare not_found.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, appErr.ErrShareRevoked):
		response.Error(c, http.StatusForbidden, "share_revoked", "share has been revoked")
	case errors.Is(err, appErr.ErrShareExpired):
		response.Error(c, http.StatusForbidden, "share_expired", "share has expired")
	case errors.Is(err, appErr.ErrFileExpired):
		response.Error(c, http.StatusForbidden, "file_expired", "file has expired")
	case errors.Is(err, appErr.ErrUsageExhausted):
		response.Error(c, http.StatusForbidden, "usage_exhausted", "share usage limit reached")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
