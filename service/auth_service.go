package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ForgotPasswordMessage is returned for every forgot-password request,
// registered email or not, so the endpoint cannot be used to enumerate
// accounts. It must stay byte-for-byte identical on both paths.
const ForgotPasswordMessage = "If an account with that email address exists, instructions to reset your password have been sent."

const userCacheTTL = 10 * time.Minute

// AuthService composes the token codec, both token ledgers, the credential
// store and the mailer into the sign-in / refresh / reset flows. It holds no
// cross-request state.
type AuthService struct {
	userRepo    repository.IUserRepository
	codec       *TokenCodec
	refreshSvc  *RefreshTokenService
	resetSvc    *ResetTokenService
	mailer      Mailer
	cacheClient ICacheClient
}

func NewAuthService(userRepo repository.IUserRepository, codec *TokenCodec,
	refreshSvc *RefreshTokenService, resetSvc *ResetTokenService,
	mailer Mailer, cacheClient ICacheClient) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		codec:       codec,
		refreshSvc:  refreshSvc,
		resetSvc:    resetSvc,
		mailer:      mailer,
		cacheClient: cacheClient,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SignIn verifies the credentials and mints a fresh token pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) SignIn(email, password string) (*model.SignInResponse, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithField("email", email).Warn("Failed login attempt: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPasswordHash(password, user.Password) {
		logger.Log.WithField("email", email).Warn("Failed login attempt: wrong password")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.codec.Issue(user.ID, user.Roles, user.Permissions, s.codec.DefaultTTL())
	if err != nil {
		return nil, err
	}

	_, refreshToken, err := s.refreshSvc.Create(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("User authenticated successfully")
	return &model.SignInResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Roles:        user.Roles,
		Permissions:  user.Permissions,
	}, nil
}

// Refresh rotates the presented refresh token: consume, reload the principal
// (roles may have changed since last issuance), issue a new access token and
// a new refresh token. Any ledger error aborts with no partial issuance.
func (s *AuthService) Refresh(tokenString string) (*model.TokenRefreshResponse, error) {
	record, err := s.refreshSvc.VerifyAndConsume(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithField("user_id", record.UserID).Error("Refresh token found but its user is gone")
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	accessToken, err := s.codec.Issue(user.ID, user.Roles, user.Permissions, s.codec.DefaultTTL())
	if err != nil {
		return nil, err
	}

	_, refreshToken, err := s.refreshSvc.Create(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("Access token refreshed")
	return &model.TokenRefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}, nil
}

// ForgotPassword starts the reset flow. The response is the same whether or
// not the email is registered; email dispatch is best-effort and its failure
// does not change the outcome.
func (s *AuthService) ForgotPassword(email string) *model.MessageResponse {
	user, err := s.lookupUserByEmail(email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("email", email).Error("Unexpected error during forgot password lookup")
		} else {
			logger.Log.WithField("email", email).Warn("Password reset requested for non-existent email")
		}
		return &model.MessageResponse{Message: ForgotPasswordMessage}
	}

	record, err := s.resetSvc.Create(user.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to create password reset token")
		return &model.MessageResponse{Message: ForgotPasswordMessage}
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Username, record.Token); err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Password reset email dispatch failed")
	}

	return &model.MessageResponse{Message: ForgotPasswordMessage}
}

// ResetPassword completes the reset flow: verify the token, change the hash,
// mark the token used, then revoke every refresh token so all sessions need
// a fresh login. Revocation failure is logged but does not fail the reset;
// the password is already changed at that point. A mark-used failure does
// fail the call: the token would otherwise stay redeemable, and the caller
// must not see an unqualified success while it is still live.
func (s *AuthService) ResetPassword(tokenString, newPassword string) (*model.MessageResponse, error) {
	record, err := s.resetSvc.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdatePassword(record.UserID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	markErr := s.resetSvc.MarkUsed(record)
	if markErr != nil {
		logger.Log.WithError(markErr).WithField("user_id", record.UserID).Error("Password updated but failed to mark reset token as used")
	}

	if count, err := s.refreshSvc.RevokeAll(record.UserID); err != nil {
		logger.Log.WithError(err).WithField("user_id", record.UserID).Error("Failed to revoke refresh tokens after password reset")
	} else {
		logger.Log.WithField("user_id", record.UserID).Infof("Invalidated %d active refresh token(s) after password reset", count)
	}

	s.invalidateUserCache(record.UserID)

	if markErr != nil {
		return nil, fmt.Errorf("password updated but reset token could not be marked used: %w", markErr)
	}

	logger.Log.WithField("user_id", record.UserID).Info("Password reset successful")
	return &model.MessageResponse{Message: "Your password has been reset successfully."}, nil
}

// ChangePassword updates the password of an authenticated user and revokes
// every refresh token, forcing a re-login everywhere.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) (*model.MessageResponse, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !CheckPasswordHash(currentPassword, user.Password) {
		logger.Log.WithField("user_id", userID).Warn("Password change attempt with wrong current password")
		return nil, ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	if count, err := s.refreshSvc.RevokeAll(userID); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to revoke refresh tokens after password change")
	} else {
		logger.Log.WithField("user_id", userID).Infof("Invalidated %d active refresh token(s) after password change", count)
	}

	s.invalidateUserCache(userID)

	return &model.MessageResponse{Message: "Your password has been changed successfully."}, nil
}

// Logout ends the session identified by the presented refresh token. A token
// that no longer exists means the session is already over, so the call
// succeeds either way.
func (s *AuthService) Logout(refreshToken string) (*model.MessageResponse, error) {
	if err := s.refreshSvc.DeleteByToken(refreshToken); err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return &model.MessageResponse{Message: "You have been logged out."}, nil
}

// lookupUserByEmail reads through a short-lived cache. Forgot-password is the
// only caller; the endpoint is a favorite target for scripted bursts and the
// cache keeps those off the database. The password hash is never cached.
func (s *AuthService) lookupUserByEmail(email string) (*model.User, error) {
	cacheKey := "user:email:" + email
	ctx := context.Background()

	if s.cacheClient != nil {
		if cached, err := s.cacheClient.Get(ctx, cacheKey).Result(); err == nil {
			var user model.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	if s.cacheClient != nil {
		slim := model.User{ID: user.ID, Username: user.Username, Email: user.Email}
		if data, err := json.Marshal(slim); err == nil {
			s.cacheClient.Set(ctx, cacheKey, data, userCacheTTL)
		}
	}

	return user, nil
}

func (s *AuthService) invalidateUserCache(userID string) {
	if s.cacheClient == nil {
		return
	}
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return
	}
	s.cacheClient.Del(context.Background(), "user:email:"+user.Email)
}
