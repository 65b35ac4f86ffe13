package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(id int32) *Session {
	return New(Params{
		ID:         id,
		Token:      fmt.Sprintf("token-%d", id),
		Username:   fmt.Sprintf("player%d", id),
		Privileges: PrivPublic,
	})
}

func TestSpectate(t *testing.T) {
	t.Run("attach is symmetric", func(t *testing.T) {
		watcher := newTestSession(10)
		host := newTestSession(20)

		existing, attached := Spectate(watcher, host)
		assert.Empty(t, existing)
		assert.True(t, attached)
		assert.Equal(t, host.ID, watcher.Spectating())
		assert.Equal(t, []int32{watcher.ID}, host.Spectators())
	})

	t.Run("attach is idempotent", func(t *testing.T) {
		watcher := newTestSession(10)
		host := newTestSession(20)

		Spectate(watcher, host)
		_, attached := Spectate(watcher, host)
		assert.False(t, attached)
		assert.Equal(t, []int32{watcher.ID}, host.Spectators())
	})

	t.Run("detach removes both directions", func(t *testing.T) {
		watcher := newTestSession(10)
		host := newTestSession(20)

		Spectate(watcher, host)
		remaining := Unspectate(watcher, host)
		assert.Empty(t, remaining)
		assert.Zero(t, watcher.Spectating())
		assert.Empty(t, host.Spectators())
	})

	t.Run("detach reports remaining fellows", func(t *testing.T) {
		host := newTestSession(20)
		a := newTestSession(10)
		b := newTestSession(11)

		Spectate(a, host)
		Spectate(b, host)

		remaining := Unspectate(a, host)
		assert.Equal(t, []int32{b.ID}, remaining)
	})

	t.Run("clear drops a dangling pointer", func(t *testing.T) {
		watcher := newTestSession(10)
		host := newTestSession(20)

		Spectate(watcher, host)
		watcher.ClearSpectating()
		assert.Zero(t, watcher.Spectating())
	})

	t.Run("concurrent attach and detach does not deadlock", func(t *testing.T) {
		a := newTestSession(1)
		b := newTestSession(2)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				Spectate(a, b)
				Unspectate(a, b)
			}()
			go func() {
				defer wg.Done()
				Spectate(b, a)
				Unspectate(b, a)
			}()
		}
		wg.Wait()
	})
}

func TestFriends(t *testing.T) {
	s := New(Params{ID: 1, Username: "p", Friends: []int32{5, 6}})

	t.Run("initial list", func(t *testing.T) {
		assert.ElementsMatch(t, []int32{5, 6}, s.FriendIDs())
		assert.True(t, s.IsFriend(5))
		assert.False(t, s.IsFriend(7))
	})

	t.Run("add reports newness", func(t *testing.T) {
		assert.True(t, s.AddFriend(7))
		assert.False(t, s.AddFriend(7))
	})

	t.Run("remove reports presence", func(t *testing.T) {
		assert.True(t, s.RemoveFriend(7))
		assert.False(t, s.RemoveFriend(7))
	})
}

func TestRestricted(t *testing.T) {
	s := newTestSession(1)
	assert.False(t, s.Restricted())

	s.SetPrivileges(0)
	assert.True(t, s.Restricted())
}

func TestPacketQueue(t *testing.T) {
	t.Run("dequeue drains atomically", func(t *testing.T) {
		q := NewPacketQueue()
		q.Enqueue([]byte{1, 2})
		q.Enqueue([]byte{3})

		buf := q.Dequeue()
		assert.Equal(t, []byte{1, 2, 3}, buf)
		assert.Nil(t, q.Dequeue())
	})

	t.Run("concurrent producers lose nothing", func(t *testing.T) {
		q := NewPacketQueue()

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.Enqueue([]byte{0xaa})
			}()
		}
		wg.Wait()

		buf := q.Dequeue()
		assert.Len(t, buf, 100)
	})
}

func TestModeFromMods(t *testing.T) {
	cases := []struct {
		name string
		raw  uint8
		mods Mods
		want Mode
	}{
		{"std vanilla", uint8(ModeStd), 0, ModeStd},
		{"std relax", uint8(ModeStd), ModRelax, ModeStdRelax},
		{"taiko relax", uint8(ModeTaiko), ModRelax, ModeTaikoRelax},
		{"catch relax", uint8(ModeCatch), ModRelax, ModeCatchRelax},
		{"mania ignores relax", uint8(ModeMania), ModRelax, ModeMania},
		{"std autopilot", uint8(ModeStd), ModAutopilot, ModeStdAutopilot},
		{"taiko ignores autopilot", uint8(ModeTaiko), ModAutopilot, ModeTaiko},
		{"out of range clamps to std", 200, 0, ModeStd},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ModeFromMods(tc.raw, tc.mods))
		})
	}
}

func TestModeVanilla(t *testing.T) {
	assert.Equal(t, ModeStd, ModeStdRelax.Vanilla())
	assert.Equal(t, ModeStd, ModeStdAutopilot.Vanilla())
	assert.Equal(t, ModeTaiko, ModeTaikoRelax.Vanilla())
	assert.Equal(t, ModeMania, ModeMania.Vanilla())
	assert.True(t, ModeCatchRelax.IsRelax())
	assert.False(t, ModeStdAutopilot.IsRelax())
}

func TestRegistry(t *testing.T) {
	t.Run("insert and lookups", func(t *testing.T) {
		reg := NewRegistry()
		s := newTestSession(1)

		require.Nil(t, reg.Insert(s))
		assert.Same(t, s, reg.GetID(1))
		assert.Same(t, s, reg.GetToken(s.Token))
		assert.Same(t, s, reg.GetUsername("player1"))
		assert.Equal(t, 1, reg.Count())
	})

	t.Run("username lookup is case sensitive", func(t *testing.T) {
		reg := NewRegistry()
		reg.Insert(newTestSession(1))
		assert.Nil(t, reg.GetUsername("Player1"))
	})

	t.Run("reinsert replaces and evicts old token", func(t *testing.T) {
		reg := NewRegistry()
		old := newTestSession(1)
		reg.Insert(old)

		replacement := New(Params{ID: 1, Token: "fresh", Username: "player1", Privileges: PrivPublic})
		replaced := reg.Insert(replacement)

		assert.Same(t, old, replaced)
		assert.Nil(t, reg.GetToken(old.Token))
		assert.Same(t, replacement, reg.GetToken("fresh"))
		assert.Equal(t, 1, reg.Count())
	})

	t.Run("remove", func(t *testing.T) {
		reg := NewRegistry()
		s := newTestSession(1)
		reg.Insert(s)

		assert.Same(t, s, reg.Remove(1))
		assert.Nil(t, reg.GetID(1))
		assert.Nil(t, reg.GetToken(s.Token))
		assert.Nil(t, reg.Remove(1))
	})

	t.Run("broadcast except skips the originator", func(t *testing.T) {
		reg := NewRegistry()
		a := newTestSession(1)
		b := newTestSession(2)
		reg.Insert(a)
		reg.Insert(b)

		reg.BroadcastExcept([]byte{0xff}, a.ID)
		assert.Nil(t, a.Dequeue())
		assert.Equal(t, []byte{0xff}, b.Dequeue())
	})

	t.Run("broadcast reaches everyone", func(t *testing.T) {
		reg := NewRegistry()
		a := newTestSession(1)
		b := newTestSession(2)
		reg.Insert(a)
		reg.Insert(b)

		reg.Broadcast([]byte{0x01})
		assert.Equal(t, []byte{0x01}, a.Dequeue())
		assert.Equal(t, []byte{0x01}, b.Dequeue())
	})
}
