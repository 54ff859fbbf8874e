package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", bcryptTestCost)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	_, err = HashPassword("short", bcryptTestCost)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = HashPassword(strings.Repeat("x", 73), bcryptTestCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse", bcryptTestCost)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("correct-horse", hash))
	assert.ErrorIs(t, CheckPassword("wrong", hash), ErrInvalidPassword)
}

func TestGenerateSessionSecret(t *testing.T) {
	first, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.Len(t, first, 64) // 32 bytes hex-encoded

	second, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
