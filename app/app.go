// File: app/app.go
package app

import (
	"context"
	"fmt"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/ratelimit"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const resetTokenPurgeInterval = 1 * time.Hour

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- Wiring All Layers Together ---
	cfg := config.AppConfig

	codec, err := service.NewTokenCodec(cfg.JWT.SecretKey, time.Duration(cfg.JWT.AccessTokenMinutes)*time.Minute)
	if err != nil {
		logger.Log.Fatalf("Invalid JWT configuration: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	resetRepo := repository.NewResetTokenRepository(database)

	refreshSvc := service.NewRefreshTokenService(tokenRepo, time.Duration(cfg.RefreshToken.TTLHours)*time.Hour)
	resetSvc := service.NewResetTokenService(resetRepo, time.Duration(cfg.ResetToken.TTLHours)*time.Hour)

	mailer := service.NewSMTPMailer(
		fmt.Sprintf("%s:%s", cfg.Mail.Host, cfg.Mail.Port),
		cfg.Mail.From,
		cfg.Mail.ResetBaseURL,
	)

	authService := service.NewAuthService(userRepo, codec, refreshSvc, resetSvc, mailer, redisClient)
	authHandler := handler.NewAuthHandler(authService)

	limiter := ratelimit.NewLimiter(map[string]ratelimit.Rule{
		"auth": {Capacity: cfg.RateLimit.AuthPerMinute, Window: time.Minute},
		"api":  {Capacity: cfg.RateLimit.APIPerMinute, Window: time.Minute},
	}, cfg.RateLimit.TrustProxyHeader)

	r := router.NewRouter(authHandler, limiter, codec)

	// Expired reset tokens are purged in the background, never per request.
	purgeDone := make(chan struct{})
	go purgeExpiredResetTokens(resetSvc, purgeDone)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Auth server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	close(purgeDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

func purgeExpiredResetTokens(resetSvc *service.ResetTokenService, done <-chan struct{}) {
	ticker := time.NewTicker(resetTokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count, err := resetSvc.PurgeExpired()
			if err != nil {
				logger.Log.WithError(err).Error("Failed to purge expired password reset tokens")
				continue
			}
			if count > 0 {
				logger.Log.Infof("Purged %d expired password reset token(s)", count)
			}
		case <-done:
			return
		}
	}
}
