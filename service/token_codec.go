// file: service/token_codec.go

package service

import (
	"errors"
	"fmt"
	"go-auth-api/logger"
	"go-auth-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretKeyBytes is the minimum signing key length. HS512 needs a key at
// least as long as the hash output to keep its full strength.
const MinSecretKeyBytes = 64

// TokenCodec produces and verifies signed bearer tokens. It holds no state
// beyond the signing key, so Verify never touches a store; the gateway can
// run any number of instances without coordination.
type TokenCodec struct {
	key        []byte
	defaultTTL time.Duration
}

func NewTokenCodec(secret string, defaultTTL time.Duration) (*TokenCodec, error) {
	if len(secret) < MinSecretKeyBytes {
		return nil, fmt.Errorf("jwt secret key must be at least %d bytes, got %d", MinSecretKeyBytes, len(secret))
	}
	return &TokenCodec{key: []byte(secret), defaultTTL: defaultTTL}, nil
}

// DefaultTTL returns the configured access token lifetime.
func (c *TokenCodec) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Issue signs a new access token for the principal. The claim set is
// deterministic: subject and user_id carry the principal id, roles and
// permissions ride as list claims, issued-at is now and expiry is now+ttl.
func (c *TokenCodec) Issue(userID string, roles, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &model.AppClaims{
		UserID:      userID,
		Roles:       roles,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString(c.key)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
// It is side-effect free. Expired tokens yield ErrTokenExpired; everything
// else (malformed input, bad signature, wrong algorithm) yields
// ErrTokenInvalid.
func (c *TokenCodec) Verify(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
