package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobancho-project/gobancho/internal/session"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string, privs session.Privileges) int32 {
	t.Helper()

	res, err := s.db.Exec(
		`INSERT INTO users (username, username_safe, password_bcrypt, privileges, country)
		 VALUES (?, ?, 'x', ?, 'JP')`,
		username, NormalizeUsername(username), int64(privs))
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int32(id)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "full_metal", NormalizeUsername("Full Metal"))
	assert.Equal(t, "cookiezi", NormalizeUsername("cookiezi"))
	assert.Equal(t, "a_b_c", NormalizeUsername("A b C"))
}

func TestUserByUsername(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := seedUser(t, s, "Full Metal", session.PrivPublic|session.PrivNormal)

	t.Run("found by safe name", func(t *testing.T) {
		u, err := s.UserByUsername(ctx, "full_metal")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "Full Metal", u.Username)
		assert.Equal(t, session.PrivPublic|session.PrivNormal, u.Privileges)
		assert.Equal(t, "JP", u.Country)
	})

	t.Run("display name misses", func(t *testing.T) {
		_, err := s.UserByUsername(ctx, "Full Metal")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.UserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAllStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := seedUser(t, s, "p", session.PrivPublic)

	_, err := s.db.Exec(
		`INSERT INTO user_stats (user_id, mode, ranked_score, total_score, accuracy, playcount, pp, global_rank)
		 VALUES (?, ?, 100, 200, 98.5, 10, 1234, 7)`,
		id, int(session.ModeStdRelax))
	require.NoError(t, err)

	stats, err := s.AllStats(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int64(100), stats[session.ModeStdRelax].RankedScore)
	assert.Equal(t, int16(1234), stats[session.ModeStdRelax].PP)
	assert.InDelta(t, 98.5, stats[session.ModeStdRelax].Accuracy, 1e-4)

	// Modes without a row stay zero.
	assert.Zero(t, stats[session.ModeStd])
}

func TestFriends(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a := seedUser(t, s, "a", session.PrivPublic)
	b := seedUser(t, s, "b", session.PrivPublic)

	t.Run("empty initially", func(t *testing.T) {
		ids, err := s.Friends(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("add and list", func(t *testing.T) {
		require.NoError(t, s.AddFriend(ctx, a, b))
		ids, err := s.Friends(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, []int32{b}, ids)
	})

	t.Run("duplicate add is ignored", func(t *testing.T) {
		require.NoError(t, s.AddFriend(ctx, a, b))
		ids, err := s.Friends(ctx, a)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("one-directional", func(t *testing.T) {
		ids, err := s.Friends(ctx, b)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.RemoveFriend(ctx, a, b))
		ids, err := s.Friends(ctx, a)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestPrivilegesAndCountry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := seedUser(t, s, "p", session.PrivPublic)

	privs, err := s.Privileges(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.PrivPublic, privs)

	country, err := s.Country(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "JP", country)

	_, err = s.Privileges(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Country(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
