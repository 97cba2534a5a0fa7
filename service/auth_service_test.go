// file: service/auth_service_test.go

package service

import (
	"database/sql"
	"errors"
	"go-auth-api/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(userID string, newHash string) error {
	args := m.Called(userID, newHash)
	return args.Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendPasswordResetEmail(to, username, token string) error {
	args := m.Called(to, username, token)
	return args.Error(0)
}

type authFixture struct {
	userRepo  *mockUserRepo
	tokenRepo *mockTokenRepo
	resetRepo *mockResetTokenRepo
	mailer    *mockMailer
	svc       *AuthService
	codec     *TokenCodec
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec() returned an unexpected error: %v", err)
	}

	f := &authFixture{
		userRepo:  new(mockUserRepo),
		tokenRepo: new(mockTokenRepo),
		resetRepo: new(mockResetTokenRepo),
		mailer:    new(mockMailer),
		codec:     codec,
	}
	refreshSvc := NewRefreshTokenService(f.tokenRepo, 720*time.Hour)
	resetSvc := NewResetTokenService(f.resetRepo, 24*time.Hour)
	f.svc = NewAuthService(f.userRepo, codec, refreshSvc, resetSvc, f.mailer, nil)
	return f
}

// testHash uses the minimum bcrypt cost to keep the suite fast; verification
// does not depend on the cost factor.
func testHash(t *testing.T, password string) string {
	t.Helper()
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword() returned an unexpected error: %v", err)
	}
	return string(bytes)
}

// TestAuthService_HashAndCheckPassword ensures that password hashing and verification work correctly.
func TestAuthService_HashAndCheckPassword(t *testing.T) {
	password := "mySecretPassword123"

	hashedPassword, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() returned an unexpected error: %v", err)
	}

	if hashedPassword == password {
		t.Errorf("Hashed password should not be the same as the original password.")
	}

	if !CheckPasswordHash(password, hashedPassword) {
		t.Errorf("CheckPasswordHash() should have returned true for a matching password, but got false.")
	}

	if CheckPasswordHash("notMyPassword", hashedPassword) {
		t.Errorf("CheckPasswordHash() should have returned false for a non-matching password, but got true.")
	}
}

func TestAuthService_SignIn(t *testing.T) {
	user := &model.User{
		ID:          "u1",
		Username:    "alice",
		Email:       "alice@example.com",
		Roles:       []string{"Admin"},
		Permissions: []string{"user:read"},
	}

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		u := *user
		u.Password = testHash(t, "correct-horse1")

		f.userRepo.On("GetUserByEmail", "alice@example.com").Return(&u, nil).Once()
		f.tokenRepo.On("Replace", mock.MatchedBy(func(tok *model.RefreshToken) bool {
			return tok.UserID == "u1"
		})).Return(nil).Once()

		resp, err := f.svc.SignIn("alice@example.com", "correct-horse1")

		assert.NoError(t, err)
		assert.Equal(t, "u1", resp.UserID)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, []string{"Admin"}, resp.Roles)
		assert.Equal(t, []string{"user:read"}, resp.Permissions)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)

		// The issued access token verifies back to the same principal.
		claims, err := f.codec.Verify(resp.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, []string{"Admin"}, claims.Roles)
		f.tokenRepo.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("GetUserByEmail", mock.Anything).Return(nil, sql.ErrNoRows).Once()

		_, err := f.svc.SignIn("nobody@example.com", "whatever123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.tokenRepo.AssertNotCalled(t, "Replace")
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		u := *user
		u.Password = testHash(t, "correct-horse1")
		f.userRepo.On("GetUserByEmail", "alice@example.com").Return(&u, nil).Once()

		_, err := f.svc.SignIn("alice@example.com", "wrong-password")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.tokenRepo.AssertNotCalled(t, "Replace")
	})

	t.Run("credential store failure", func(t *testing.T) {
		f := newAuthFixture(t)
		f.userRepo.On("GetUserByEmail", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		_, err := f.svc.SignIn("alice@example.com", "correct-horse1")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Run("rotates the token and reloads roles", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.RefreshToken{ID: 1, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
		f.tokenRepo.On("ConsumeByTokenHash", hashToken("old-token")).Return(record, nil).Once()

		// Roles changed since the last issuance; the new access token must
		// carry the fresh set.
		f.userRepo.On("GetUserByID", "u1").Return(&model.User{
			ID: "u1", Username: "alice", Email: "alice@example.com", Roles: []string{"StandardUser"},
		}, nil).Once()

		f.tokenRepo.On("Replace", mock.Anything).Return(nil).Once()

		resp, err := f.svc.Refresh("old-token")

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, "old-token", resp.RefreshToken)

		claims, err := f.codec.Verify(resp.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, []string{"StandardUser"}, claims.Roles)
		f.tokenRepo.AssertExpectations(t)
	})

	t.Run("consumed token cannot be replayed", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.RefreshToken{ID: 1, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
		f.tokenRepo.On("ConsumeByTokenHash", hashToken("old-token")).Return(record, nil).Once()
		f.tokenRepo.On("ConsumeByTokenHash", hashToken("old-token")).Return(nil, sql.ErrNoRows).Once()
		f.userRepo.On("GetUserByID", "u1").Return(&model.User{ID: "u1"}, nil).Once()
		f.tokenRepo.On("Replace", mock.Anything).Return(nil).Once()

		_, firstErr := f.svc.Refresh("old-token")
		_, secondErr := f.svc.Refresh("old-token")

		assert.NoError(t, firstErr)
		assert.ErrorIs(t, secondErr, ErrTokenNotFound)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.RefreshToken{ID: 1, UserID: "u1", ExpiresAt: time.Now().Add(-1 * time.Minute)}
		f.tokenRepo.On("ConsumeByTokenHash", mock.Anything).Return(record, nil).Once()

		_, err := f.svc.Refresh("stale-token")

		assert.ErrorIs(t, err, ErrTokenExpired)
		f.userRepo.AssertNotCalled(t, "GetUserByID")
	})

	t.Run("no partial issuance on rotation failure", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.RefreshToken{ID: 1, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
		f.tokenRepo.On("ConsumeByTokenHash", mock.Anything).Return(record, nil).Once()
		f.userRepo.On("GetUserByID", "u1").Return(&model.User{ID: "u1"}, nil).Once()
		f.tokenRepo.On("Replace", mock.Anything).Return(errors.New("database error")).Once()

		resp, err := f.svc.Refresh("old-token")

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}

func TestAuthService_ForgotPassword(t *testing.T) {
	t.Run("registered and unregistered emails get identical responses", func(t *testing.T) {
		f := newAuthFixture(t)

		user := &model.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
		f.userRepo.On("GetUserByEmail", "alice@example.com").Return(user, nil).Once()
		f.userRepo.On("GetUserByEmail", "nobody@example.com").Return(nil, sql.ErrNoRows).Once()
		f.resetRepo.On("SupersedeActiveByUserID", "u1", mock.Anything).Return(int64(0), nil).Once()
		f.resetRepo.On("Create", mock.Anything).Return(nil).Once()
		f.mailer.On("SendPasswordResetEmail", "alice@example.com", "alice", mock.Anything).Return(nil).Once()

		registered := f.svc.ForgotPassword("alice@example.com")
		unregistered := f.svc.ForgotPassword("nobody@example.com")

		assert.Equal(t, registered.Message, unregistered.Message)
		f.mailer.AssertExpectations(t)
	})

	t.Run("mail failure does not change the response", func(t *testing.T) {
		f := newAuthFixture(t)

		user := &model.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
		f.userRepo.On("GetUserByEmail", "alice@example.com").Return(user, nil).Once()
		f.resetRepo.On("SupersedeActiveByUserID", "u1", mock.Anything).Return(int64(0), nil).Once()
		f.resetRepo.On("Create", mock.Anything).Return(nil).Once()
		f.mailer.On("SendPasswordResetEmail", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp unreachable")).Once()

		resp := f.svc.ForgotPassword("alice@example.com")

		assert.Equal(t, ForgotPasswordMessage, resp.Message)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("success revokes every session", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.PasswordResetToken{ID: 5, UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
		f.resetRepo.On("GetByToken", "tok").Return(record, nil).Once()
		f.userRepo.On("UpdatePassword", "u1", mock.MatchedBy(func(hash string) bool {
			return CheckPasswordHash("newPassword1", hash)
		})).Return(nil).Once()
		f.resetRepo.On("MarkUsed", 5).Return(nil).Once()
		f.tokenRepo.On("DeleteByUserID", "u1").Return(int64(1), nil).Once()

		resp, err := f.svc.ResetPassword("tok", "newPassword1")

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
		f.tokenRepo.AssertExpectations(t)
		f.resetRepo.AssertExpectations(t)
	})

	t.Run("expired token leaves the password untouched", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.PasswordResetToken{ID: 5, UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(-1 * time.Second)}
		f.resetRepo.On("GetByToken", "tok").Return(record, nil).Once()

		_, err := f.svc.ResetPassword("tok", "newPassword1")

		assert.ErrorIs(t, err, ErrTokenExpired)
		f.userRepo.AssertNotCalled(t, "UpdatePassword")
	})

	t.Run("used token is rejected", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.PasswordResetToken{ID: 5, UserID: "u1", Token: "tok", Used: true, ExpiresAt: time.Now().Add(time.Hour)}
		f.resetRepo.On("GetByToken", "tok").Return(record, nil).Once()

		_, err := f.svc.ResetPassword("tok", "newPassword1")

		assert.ErrorIs(t, err, ErrTokenUsed)
		f.userRepo.AssertNotCalled(t, "UpdatePassword")
	})

	t.Run("mark-used failure surfaces after the password change", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.PasswordResetToken{ID: 5, UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
		f.resetRepo.On("GetByToken", "tok").Return(record, nil).Once()
		f.userRepo.On("UpdatePassword", "u1", mock.Anything).Return(nil).Once()
		f.resetRepo.On("MarkUsed", 5).Return(errors.New("database error")).Once()
		f.tokenRepo.On("DeleteByUserID", "u1").Return(int64(1), nil).Once()

		resp, err := f.svc.ResetPassword("tok", "newPassword1")

		// The password changed and sessions were still revoked, but the call
		// must not report success while the token remains live.
		assert.Error(t, err)
		assert.Nil(t, resp)
		f.userRepo.AssertCalled(t, "UpdatePassword", "u1", mock.Anything)
		f.tokenRepo.AssertExpectations(t)
	})

	t.Run("revocation failure does not fail the reset", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.PasswordResetToken{ID: 5, UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
		f.resetRepo.On("GetByToken", "tok").Return(record, nil).Once()
		f.userRepo.On("UpdatePassword", "u1", mock.Anything).Return(nil).Once()
		f.resetRepo.On("MarkUsed", 5).Return(nil).Once()
		f.tokenRepo.On("DeleteByUserID", "u1").Return(int64(0), errors.New("database error")).Once()

		_, err := f.svc.ResetPassword("tok", "newPassword1")

		assert.NoError(t, err)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Run("success revokes refresh tokens", func(t *testing.T) {
		f := newAuthFixture(t)

		u := &model.User{ID: "u1", Email: "alice@example.com", Password: testHash(t, "oldPassword1")}
		f.userRepo.On("GetUserByID", "u1").Return(u, nil).Once()
		f.userRepo.On("UpdatePassword", "u1", mock.Anything).Return(nil).Once()
		f.tokenRepo.On("DeleteByUserID", "u1").Return(int64(1), nil).Once()

		_, err := f.svc.ChangePassword("u1", "oldPassword1", "newPassword1")

		assert.NoError(t, err)
		f.tokenRepo.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture(t)

		u := &model.User{ID: "u1", Password: testHash(t, "oldPassword1")}
		f.userRepo.On("GetUserByID", "u1").Return(u, nil).Once()

		_, err := f.svc.ChangePassword("u1", "wrong", "newPassword1")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.userRepo.AssertNotCalled(t, "UpdatePassword")
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("deletes only the presented session", func(t *testing.T) {
		f := newAuthFixture(t)

		record := &model.RefreshToken{ID: 1, UserID: "u1"}
		f.tokenRepo.On("ConsumeByTokenHash", hashToken("opaque")).Return(record, nil).Once()

		_, err := f.svc.Logout("opaque")

		assert.NoError(t, err)
		f.tokenRepo.AssertNotCalled(t, "DeleteByUserID")
	})

	t.Run("unknown token is an idempotent success", func(t *testing.T) {
		f := newAuthFixture(t)

		f.tokenRepo.On("ConsumeByTokenHash", mock.Anything).Return(nil, sql.ErrNoRows).Once()

		resp, err := f.svc.Logout("gone")

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
	})
}
