package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/Arhamdeez/envVault/internal/blobstore"
	"github.com/Arhamdeez/envVault/internal/config"
	"github.com/Arhamdeez/envVault/internal/db"
	"github.com/Arhamdeez/envVault/internal/handler"
	"github.com/Arhamdeez/envVault/internal/job"
	"github.com/Arhamdeez/envVault/internal/middleware"
	"github.com/Arhamdeez/envVault/internal/repo"
	"github.com/Arhamdeez/envVault/internal/schedule"
	"github.com/Arhamdeez/envVault/internal/service"
	"github.com/Arhamdeez/envVault/internal/token"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "envvault",
		Short: "envvault backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run envvault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("blob_store", cfg.BlobStore.Type),
	)

	tokenService, err := token.NewService(cfg.TokenHMACSecret)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}
	store, err := blobstore.New(cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	fileRepo := repo.NewFileRepo(conn)
	shareRepo := repo.NewShareRepo(conn)
	auditRepo := repo.NewAuditRepo(conn)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	fileService := service.NewFileService(conn, fileRepo, shareRepo, auditRepo, store)
	shareService := service.NewShareService(conn, fileRepo, shareRepo, auditRepo, tokenService, store)
	auditService := service.NewAuditService(fileRepo, auditRepo)

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Files:           handler.NewFileHandler(fileService),
		Shares:          handler.NewShareHandler(shareService),
		Audit:           handler.NewAuditHandler(auditService),
		JWTSecret:       []byte(cfg.JWTSecret),
		DownloadRateSec: cfg.DownloadRateSec,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.CleanupCron != "" {
		if err := scheduler.AddJob(job.NewExpiredFileCleanupJob(fileService, 7*24*time.Hour), cfg.CleanupCron); err != nil {
			return fmt.Errorf("schedule cleanup job: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
