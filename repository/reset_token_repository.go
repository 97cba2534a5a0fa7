// file: repository/reset_token_repository.go

package repository

import (
	"database/sql"
	"go-auth-api/logger"
	"go-auth-api/model"
	"time"
)

// IResetTokenRepository defines the contract for password reset token
// database operations.
type IResetTokenRepository interface {
	Create(token *model.PasswordResetToken) error
	GetByToken(tokenString string) (*model.PasswordResetToken, error)
	MarkUsed(id int) error
	SupersedeActiveByUserID(userID string, now time.Time) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

// ResetTokenRepository implements IResetTokenRepository.
type ResetTokenRepository struct {
	DB *sql.DB
}

// NewResetTokenRepository creates a new ResetTokenRepository.
func NewResetTokenRepository(db *sql.DB) *ResetTokenRepository {
	return &ResetTokenRepository{DB: db}
}

// Create inserts a new password reset token record.
func (r *ResetTokenRepository) Create(token *model.PasswordResetToken) error {
	log := logger.Log.WithField("user_id", token.UserID)
	log.Info("Executing query to create a new password reset token")

	query := `INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRow(query, token.UserID, token.Token, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create password reset token query")
		return err
	}
	return nil
}

// GetByToken retrieves a password reset token by its string value. Reads do
// not mutate the record; verification and consumption are separate steps.
func (r *ResetTokenRepository) GetByToken(tokenString string) (*model.PasswordResetToken, error) {
	token := &model.PasswordResetToken{}
	query := `SELECT id, user_id, token, expires_at, used, created_at FROM password_reset_tokens WHERE token = $1`
	err := r.DB.QueryRow(query, tokenString).Scan(&token.ID, &token.UserID, &token.Token, &token.ExpiresAt, &token.Used, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get password reset token query")
		}
		return nil, err
	}
	return token, nil
}

// MarkUsed flips the used flag to true. The update is idempotent.
func (r *ResetTokenRepository) MarkUsed(id int) error {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE id = $1`
	_, err := r.DB.Exec(query, id)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to mark password reset token as used")
		return err
	}
	return nil
}

// SupersedeActiveByUserID marks every unused, unexpired token of the user as
// used, so only the most recently issued reset token stays valid.
func (r *ResetTokenRepository) SupersedeActiveByUserID(userID string, now time.Time) (int64, error) {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE user_id = $1 AND used = FALSE AND expires_at > $2`
	result, err := r.DB.Exec(query, userID, now)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to supersede active password reset tokens")
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpired bulk-deletes records past expiry regardless of the used flag.
// Intended for periodic background invocation, not per-request cleanup.
func (r *ResetTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`
	result, err := r.DB.Exec(query, now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to delete expired password reset tokens")
		return 0, err
	}
	return result.RowsAffected()
}
