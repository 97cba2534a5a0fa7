// file: repository/token_repository.go

package repository

import (
	"database/sql"
	"go-auth-api/logger"
	"go-auth-api/model"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database operations.
type ITokenRepository interface {
	Replace(token *model.RefreshToken) error
	ConsumeByTokenHash(tokenHash string) (*model.RefreshToken, error)
	DeleteByUserID(userID string) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

// Replace inserts the user's refresh token, displacing any prior one in a
// single atomic upsert. The UNIQUE(user_id) constraint is what enforces the
// at-most-one-live-token-per-user invariant: two racing sign-ins serialize on
// the constraint itself rather than on snapshot-visible rows, so the last
// writer wins and no second record can ever coexist.
func (r *TokenRepository) Replace(token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	})
	log.Info("Executing atomic replace of refresh token")

	query := `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3) ON CONFLICT (user_id) DO UPDATE SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, created_at = now() RETURNING id, created_at`
	if err := r.DB.QueryRow(query, token.UserID, token.TokenHash, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt); err != nil {
		log.WithError(err).Error("Failed to upsert refresh token")
		return err
	}
	return nil
}

// ConsumeByTokenHash deletes the record with the given hash and returns it in
// a single round trip. The DELETE ... RETURNING statement is atomic, so two
// concurrent consumers of the same token cannot both succeed: the loser sees
// sql.ErrNoRows.
func (r *TokenRepository) ConsumeByTokenHash(tokenHash string) (*model.RefreshToken, error) {
	log := logger.Log.WithField("token_hash", tokenHash)
	log.Info("Executing atomic consume of refresh token")

	token := &model.RefreshToken{}
	query := `DELETE FROM refresh_tokens WHERE token_hash = $1 RETURNING id, user_id, token_hash, expires_at, created_at`
	err := r.DB.QueryRow(query, tokenHash).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute consume refresh token query")
		}
		return nil, err // Return sql.ErrNoRows if not found
	}
	return token, nil
}

// DeleteByUserID deletes all refresh tokens for a specific user and reports
// how many were removed. This is used to end every session at once.
func (r *TokenRepository) DeleteByUserID(userID string) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all refresh tokens for a user")

	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	result, err := r.DB.Exec(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete refresh tokens query")
		return 0, err
	}
	return result.RowsAffected()
}
