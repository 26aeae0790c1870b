package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noxvision/accounts-api/internal/config"
	"github.com/noxvision/accounts-api/internal/database"
	"github.com/noxvision/accounts-api/internal/googleid"
	"github.com/noxvision/accounts-api/internal/httpapi"
	"github.com/noxvision/accounts-api/internal/mailer"
	"github.com/noxvision/accounts-api/internal/repository"
	"github.com/noxvision/accounts-api/internal/service"
	"github.com/noxvision/accounts-api/internal/storage"
	"github.com/noxvision/accounts-api/internal/token"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	log.Println("Database connected successfully")

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	// Initialize collaborators
	jwtManager, err := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return err
	}
	mailSender := mailer.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GmailRefreshToken, cfg.GmailSender, cfg.AppName, cfg.FrontendURL)
	googleVerifier := googleid.NewVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret)

	var avatarStore *storage.AvatarStore
	if cfg.AWSBucket != "" {
		avatarStore, err = storage.NewAvatarStore(context.Background(), cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.AWSBucket)
		if err != nil {
			return err
		}
	}

	// Initialize services
	googleAuth := service.NewGoogleAuthService(userRepo, googleVerifier)
	userService := service.NewUserService(userRepo, otpRepo, mailSender, googleAuth, jwtManager, cfg.AllowGoogleUnlinkWithoutPassword)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	// Initialize HTTP handler
	handler := httpapi.NewHandler(userService, apiKeyService, avatarStore, jwtManager)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Routes(),
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-sigChan:
		log.Println("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
		log.Println("Application stopped")
		return nil

	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
