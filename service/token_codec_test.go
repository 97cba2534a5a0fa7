// file: service/token_codec_test.go

package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key-0123456789abcdef0123456789abcdef0123456789abcdef01234567"

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec() returned an unexpected error: %v", err)
	}
	return codec
}

func TestNewTokenCodec_RejectsShortKey(t *testing.T) {
	_, err := NewTokenCodec("too-short", 15*time.Minute)
	assert.Error(t, err)
}

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	codec := newTestCodec(t)

	tokenString, err := codec.Issue("u1", []string{"Admin"}, []string{"user:read"}, time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(tokenString, ".")), "token should be a three-part signed structure")

	claims, err := codec.Verify(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, []string{"Admin"}, claims.Roles)
	assert.Equal(t, []string{"user:read"}, claims.Permissions)
	assert.Equal(t, "u1", claims.Subject)
}

func TestTokenCodec_VerifyExpired(t *testing.T) {
	codec := newTestCodec(t)

	// A negative TTL simulates a token issued in the past.
	tokenString, err := codec.Issue("u1", []string{"Admin"}, nil, -1*time.Second)
	assert.NoError(t, err)

	_, err = codec.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_VerifyInvalid(t *testing.T) {
	codec := newTestCodec(t)

	t.Run("malformed input", func(t *testing.T) {
		_, err := codec.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		tokenString, err := codec.Issue("u1", []string{"Admin"}, nil, time.Minute)
		assert.NoError(t, err)

		parts := strings.Split(tokenString, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "xx"
		_, err = codec.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("signed with a different key", func(t *testing.T) {
		other, err := NewTokenCodec(strings.Repeat("x", 64), 15*time.Minute)
		assert.NoError(t, err)

		tokenString, err := other.Issue("u1", []string{"Admin"}, nil, time.Minute)
		assert.NoError(t, err)

		_, err = codec.Verify(tokenString)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
