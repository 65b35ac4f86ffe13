package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(time.Minute, 2)
	require.NoError(t, err)
	t.Cleanup(v.Release)
	return v
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t)
	hash := hashFor(t, "hunter2")

	t.Run("correct password", func(t *testing.T) {
		ok, err := v.Verify(context.Background(), "hunter2", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("correct result is cached", func(t *testing.T) {
		assert.Equal(t, 1, v.CacheLen())
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := v.Verify(context.Background(), "wrong", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		assert.Equal(t, 1, v.CacheLen())
	})
}

func TestVerifyCacheBoundToHash(t *testing.T) {
	v := newTestVerifier(t)
	oldHash := hashFor(t, "hunter2")

	ok, err := v.Verify(context.Background(), "hunter2", oldHash)
	require.NoError(t, err)
	require.True(t, ok)

	// Same submitted password against a different stored hash must not hit
	// the stale cache entry.
	newHash := hashFor(t, "changed")
	ok, err = v.Verify(context.Background(), "hunter2", newHash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateHash(t *testing.T) {
	v := newTestVerifier(t)
	hash := hashFor(t, "hunter2")

	ok, err := v.Verify(context.Background(), "hunter2", hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v.CacheLen())

	v.InvalidateHash(hash)
	assert.Zero(t, v.CacheLen())
}

func TestInvalidateHashLeavesOthers(t *testing.T) {
	v := newTestVerifier(t)
	hashA := hashFor(t, "aaa")
	hashB := hashFor(t, "bbb")

	_, err := v.Verify(context.Background(), "aaa", hashA)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "bbb", hashB)
	require.NoError(t, err)
	require.Equal(t, 2, v.CacheLen())

	v.InvalidateHash(hashA)
	assert.Equal(t, 1, v.CacheLen())
}
