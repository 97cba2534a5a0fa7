package router

import (
	"go-auth-api/handler"
	"go-auth-api/ratelimit"
	"go-auth-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "go-auth-api/docs"
)

// NewRouter assembles the issuing-service routes. The auth endpoints sit
// behind the tighter "auth" rate-limit class; everything else uses "api".
func NewRouter(authHandler *handler.AuthHandler, limiter *ratelimit.Limiter, codec *service.TokenCodec) http.Handler {
	mux := http.NewServeMux()

	authLimit := ratelimit.Middleware(limiter, "auth")
	apiLimit := ratelimit.Middleware(limiter, "api")

	mux.Handle("/v1/api/auth/signin", authLimit(handler.ErrorHandlingMiddleware(authHandler.SignIn)))
	mux.Handle("/v1/api/auth/refresh", authLimit(handler.ErrorHandlingMiddleware(authHandler.Refresh)))
	mux.Handle("/v1/api/auth/forgot-password", authLimit(handler.ErrorHandlingMiddleware(authHandler.ForgotPassword)))
	mux.Handle("/v1/api/auth/reset-password", authLimit(handler.ErrorHandlingMiddleware(authHandler.ResetPassword)))
	mux.Handle("/v1/api/auth/logout", authLimit(handler.ErrorHandlingMiddleware(authHandler.Logout)))

	authRequired := handler.AuthMiddleware(codec)
	mux.Handle("/v1/api/auth/change-password", apiLimit(authRequired(handler.ErrorHandlingMiddleware(authHandler.ChangePassword))))

	mux.HandleFunc("/health", handler.HealthCheck)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
