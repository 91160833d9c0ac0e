package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("s3cret", 42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseTokenRejects(t *testing.T) {
	t.Run("WrongSecret", func(t *testing.T) {
		token, err := GenerateToken("s3cret", 42, "alice", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken("other", token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := GenerateToken("s3cret", 42, "alice", -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken("s3cret", token)
		assert.Error(t, err)
	})

	t.Run("NoUser", func(t *testing.T) {
		token, err := GenerateToken("s3cret", 0, "ghost", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken("s3cret", token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseToken("s3cret", "not-a-jwt")
		assert.Error(t, err)
	})
}
