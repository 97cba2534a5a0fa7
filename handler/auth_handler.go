package handler

import (
	"encoding/json"
	"go-auth-api/common"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/service"
	"net/http"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// SignIn godoc
// @Summary      Authenticate a user
// @Description  Verifies email and password and returns an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.SignInRequest true "Credentials"
// @Success      200 {object} model.SignInResponse
// @Failure      401 {object} common.AppError
// @Router       /v1/api/auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.SignInRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	logger.Log.WithField("email", req.Email).Info("Sign-in request received")

	resp, err := h.service.SignIn(req.Email, req.Password)
	if err != nil {
		return toAppError(err)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Exchanges a valid refresh token for a new access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.TokenRefreshRequest true "Refresh token"
// @Success      200 {object} model.TokenRefreshResponse
// @Failure      401 {object} common.AppError
// @Router       /v1/api/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TokenRefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	resp, err := h.service.Refresh(req.RefreshToken)
	if err != nil {
		return toAppError(err)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

// ForgotPassword godoc
// @Summary      Request a password reset email
// @Description  Always answers with the same message, whether or not the email is registered
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.ForgotPasswordRequest true "Account email"
// @Success      200 {object} model.MessageResponse
// @Router       /v1/api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	resp := h.service.ForgotPassword(req.Email)
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// ResetPassword godoc
// @Summary      Reset a password with an emailed token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} model.MessageResponse
// @Failure      401 {object} common.AppError
// @Router       /v1/api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	resp, err := h.service.ResetPassword(req.Token, req.NewPassword)
	if err != nil {
		return toResetAppError(err)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

// ChangePassword godoc
// @Summary      Change the password of the authenticated user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.ChangePasswordRequest true "Current and new password"
// @Success      200 {object} model.MessageResponse
// @Failure      401 {object} common.AppError
// @Security     BearerAuth
// @Router       /v1/api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	resp, err := h.service.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return toAppError(err)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

// Logout godoc
// @Summary      End the session identified by a refresh token
// @Description  Deleting an unknown token still succeeds; logout is idempotent
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LogoutRequest true "Refresh token"
// @Success      200 {object} model.MessageResponse
// @Router       /v1/api/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LogoutRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	resp, err := h.service.Logout(req.RefreshToken)
	if err != nil {
		return toAppError(err)
	}

	writeJSON(w, http.StatusOK, resp)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
