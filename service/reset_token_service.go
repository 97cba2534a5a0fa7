// file: service/reset_token_service.go

package service

import (
	"database/sql"
	"errors"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"

	"github.com/google/uuid"
)

// ResetTokenService owns the password reset ledger: single-use, time-boxed
// tokens, one outstanding token per user.
type ResetTokenService struct {
	repo repository.IResetTokenRepository
	ttl  time.Duration
}

func NewResetTokenService(repo repository.IResetTokenRepository, ttl time.Duration) *ResetTokenService {
	return &ResetTokenService{repo: repo, ttl: ttl}
}

// Create supersedes any outstanding unused, unexpired tokens of the user and
// inserts a fresh one.
func (s *ResetTokenService) Create(userID string) (*model.PasswordResetToken, error) {
	superseded, err := s.repo.SupersedeActiveByUserID(userID, time.Now())
	if err != nil {
		return nil, err
	}
	if superseded > 0 {
		logger.Log.WithField("user_id", userID).Infof("Superseded %d outstanding password reset token(s)", superseded)
	}

	token := &model.PasswordResetToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.repo.Create(token); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", userID).Info("Created new password reset token")
	return token, nil
}

// Verify checks the token without mutating it, so the caller can perform the
// password change first and only then mark the token used.
func (s *ResetTokenService) Verify(tokenString string) (*model.PasswordResetToken, error) {
	record, err := s.repo.GetByToken(tokenString)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if record.Used {
		return nil, ErrTokenUsed
	}
	if time.Now().After(record.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return record, nil
}

// MarkUsed flips the record to used. Safe to call more than once.
func (s *ResetTokenService) MarkUsed(record *model.PasswordResetToken) error {
	if err := s.repo.MarkUsed(record.ID); err != nil {
		return err
	}
	record.Used = true
	return nil
}

// PurgeExpired bulk-deletes records past expiry regardless of the used flag.
// Invoked periodically from a background ticker, never per request.
func (s *ResetTokenService) PurgeExpired() (int64, error) {
	return s.repo.DeleteExpired(time.Now())
}
