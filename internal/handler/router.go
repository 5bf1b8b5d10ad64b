package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arhamdeez/envVault/internal/middleware"
)

type RouterDeps struct {
	Auth            *AuthHandler
	Files           *FileHandler
	Shares          *ShareHandler
	Audit           *AuditHandler
	JWTSecret       []byte
	DownloadRateSec int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.GET("/files", deps.Files.List)
	authGroup.GET("/files/:id/metadata", deps.Files.Metadata)
	authGroup.DELETE("/files/:id", deps.Files.Delete)

	authGroup.POST("/shares/create", deps.Shares.Create)
	// DELETE revokes: the share row stays (audit history hangs off it), only
	// its revoked flag flips.
	authGroup.DELETE("/shares/:id", deps.Shares.Revoke)
	authGroup.GET("/shares/file/:fileId", deps.Shares.ListByFile)

	authGroup.GET("/audit/file/:fileId", deps.Audit.ListByFile)

	// Token-gated download: unauthenticated, but rate limited at the edge.
	api.GET("/public/shares/:token/download",
		middleware.RateLimit(time.Duration(deps.DownloadRateSec)*time.Second),
		deps.Shares.Download)
}
