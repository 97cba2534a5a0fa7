// File: gateway/app.go
package gateway

import (
	"context"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/service"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Run starts the edge gateway: a reverse proxy that verifies bearer tokens
// and forwards identity headers to the upstream service. The only state
// shared with the issuing service is the signing secret, distributed
// out-of-band through configuration.
func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	cfg := config.AppConfig

	codec, err := service.NewTokenCodec(cfg.JWT.SecretKey, time.Duration(cfg.JWT.AccessTokenMinutes)*time.Minute)
	if err != nil {
		logger.Log.Fatalf("Invalid JWT configuration: %v", err)
	}

	upstream, err := url.Parse(cfg.Gateway.UpstreamURL)
	if err != nil {
		logger.Log.Fatalf("Invalid upstream URL %q: %v", cfg.Gateway.UpstreamURL, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Log.WithError(err).WithField("path", r.URL.Path).Error("Upstream request failed")
		http.Error(w, "Bad gateway", http.StatusBadGateway)
	}

	handler := Verifier(codec)(proxy)

	port := cfg.Gateway.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	go func() {
		logger.Log.Infof("Gateway starting on port :%s, forwarding to %s", port, upstream)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start gateway: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Gateway forced to shutdown: %v", err)
	}

	logger.Log.Info("Gateway exited properly")
}
