package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.Error(t, hasher.Compare(hash, "wrong"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(4)

	_, err := hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestInvalidCostFallsBackToDefault(t *testing.T) {
	hasher := NewBcryptHasher(99)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, hasher.Compare(hash, "correct horse"))
}
