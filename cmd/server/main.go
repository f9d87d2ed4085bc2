package main

import (
	"context"
	"errors"
	"gradex/gradex/internal/api"
	"gradex/gradex/internal/config"
	"gradex/gradex/internal/logger"
	"gradex/gradex/internal/mail"
	"gradex/gradex/internal/repository/mongo"
	"gradex/gradex/internal/service"
	"gradex/gradex/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Gradex API
// @version 1.0
// @description API for assignments, student submissions and grading.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logr, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	if cfg.JWT.Secret == "" {
		logr.Fatal("JWT secret is not configured (JWT_SECRET)")
	}
	logr.Info("Configuration loaded", zap.String("address", cfg.Server.Address), zap.String("mode", cfg.Server.Mode))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logr.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		logr.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logr.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logr.Info("Database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			logr.Error("Index creation failed", zap.Error(err))
			return
		}
		logr.Info("Index creation process completed")
	}()

	// --- Initialize Storage ---
	archiveSigner, err := storage.NewArchiveSigner(cfg.Archive.Secret, cfg.Archive.BaseURL, cfg.Archive.LinkTTL)
	if err != nil {
		logr.Fatal("Failed to initialize archive signer", zap.Error(err))
	}
	fileStorage, err := storage.NewS3Storage(cfg.S3, archiveSigner, logr)
	if err != nil {
		logr.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}
	fetcher := storage.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes)

	// --- Mail ---
	var mailer mail.Mailer
	if cfg.Mail.SendgridAPIKey != "" {
		mailer = mail.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress, cfg.Mail.AppName, logr)
	} else {
		logr.Warn("SendGrid API key not set, grade notifications are only logged")
		mailer = mail.NewLogMailer(logr)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	submissionRepo := mongo.NewMongoSubmissionRepository(appDB)

	// --- Initialize Services ---
	services := api.Services{
		Auth:           service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Assignment:     service.NewAssignmentService(assignmentRepo),
		Submission:     service.NewSubmissionService(userRepo, assignmentRepo, submissionRepo, fileStorage, mailer, logr),
		SubmissionFile: service.NewSubmissionFileService(submissionRepo, assignmentRepo, fileStorage, fetcher, cfg.Fetch.SignedURLTTL, logr),
		Archive:        service.NewArchiveService(archiveSigner, fileStorage),
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(logger.GinMiddleware(logr), gin.Recovery())

	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Server.AllowedOrigins, services, logr)

	// --- Start HTTP Server ---
	// No WriteTimeout: submission files and archives are streamed.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Info("Server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logr.Error("Server forced to shutdown", zap.Error(err))
	}

	logr.Info("Server exiting")
}
