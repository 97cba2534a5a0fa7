// file: service/refresh_token_service.go

package service

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"
)

// RefreshTokenService owns the refresh token ledger: at most one live token
// per user, rotation on every use.
type RefreshTokenService struct {
	repo repository.ITokenRepository
	ttl  time.Duration
}

func NewRefreshTokenService(repo repository.ITokenRepository, ttl time.Duration) *RefreshTokenService {
	return &RefreshTokenService{repo: repo, ttl: ttl}
}

// Create mints a new opaque refresh token for the user, replacing any prior
// ones. The returned string is the only copy of the plaintext; the ledger
// keeps a SHA-256 hash.
func (s *RefreshTokenService) Create(userID string) (*model.RefreshToken, string, error) {
	raw := make([]byte, 32) // 256 bits of entropy
	if _, err := rand.Read(raw); err != nil {
		logger.Log.WithError(err).Error("Failed to generate refresh token randomness")
		return nil, "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	token := &model.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(plaintext),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	if err := s.repo.Replace(token); err != nil {
		return nil, "", err
	}

	logger.Log.WithField("user_id", userID).Info("Created new refresh token")
	return token, plaintext, nil
}

// VerifyAndConsume exchanges the presented token string for its ledger
// record, deleting it in the same store round trip. Exactly one of two
// concurrent calls with the same token can win; the loser gets
// ErrTokenNotFound. An expired record is still consumed but reported as
// ErrTokenExpired, which doubles as its garbage collection.
func (s *RefreshTokenService) VerifyAndConsume(tokenString string) (*model.RefreshToken, error) {
	record, err := s.repo.ConsumeByTokenHash(hashToken(tokenString))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if time.Now().After(record.ExpiresAt) {
		logger.Log.WithField("user_id", record.UserID).Warn("Expired refresh token presented and purged")
		return nil, ErrTokenExpired
	}

	return record, nil
}

// RevokeAll deletes every refresh token of the user and returns how many
// were removed. Used on password change and logout-everywhere.
func (s *RefreshTokenService) RevokeAll(userID string) (int64, error) {
	return s.repo.DeleteByUserID(userID)
}

// DeleteByToken ends the single session identified by the token. A token
// that is already gone counts as success: logout is idempotent.
func (s *RefreshTokenService) DeleteByToken(tokenString string) error {
	_, err := s.repo.ConsumeByTokenHash(hashToken(tokenString))
	if errors.Is(err, sql.ErrNoRows) {
		logger.Log.Warn("Logout attempt with a refresh token that was not found")
		return nil
	}
	return err
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
