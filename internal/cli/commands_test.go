package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobancho-project/gobancho/internal/auth"
	"github.com/gobancho-project/gobancho/internal/bancho"
	"github.com/gobancho-project/gobancho/internal/config"
	"github.com/gobancho-project/gobancho/internal/events"
	"github.com/gobancho-project/gobancho/internal/geo"
	"github.com/gobancho-project/gobancho/internal/session"
	"github.com/gobancho-project/gobancho/internal/store"
)

type nopStore struct{}

func (nopStore) UserByUsername(ctx context.Context, usernameSafe string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (nopStore) AllStats(ctx context.Context, userID int32) ([session.ModeCount]session.ModeStats, error) {
	return [session.ModeCount]session.ModeStats{}, nil
}

func (nopStore) Friends(ctx context.Context, userID int32) ([]int32, error) { return nil, nil }

func (nopStore) AddFriend(ctx context.Context, userID, friendID int32) error { return nil }

func (nopStore) RemoveFriend(ctx context.Context, userID, friendID int32) error { return nil }

func (nopStore) Privileges(ctx context.Context, userID int32) (session.Privileges, error) {
	return 0, store.ErrNotFound
}

func (nopStore) Country(ctx context.Context, userID int32) (string, error) { return "XX", nil }

func (nopStore) Close() error { return nil }

func newTestCLI(t *testing.T) *CLI {
	t.Helper()

	verifier, err := auth.NewVerifier(time.Minute, 2)
	require.NoError(t, err)
	t.Cleanup(verifier.Release)

	registry := session.NewRegistry()
	handlers := bancho.NewHandlers(bancho.Config{ServerName: "testbancho"},
		registry, nopStore{}, verifier, geo.NopResolver{}, events.NewBus())

	return NewCLI(config.DefaultConfig(), handlers, func() {})
}

func TestFindSession(t *testing.T) {
	c := newTestCLI(t)
	s := session.New(session.Params{
		ID:         7,
		Token:      "token",
		Username:   "Cookiezi",
		Privileges: session.PrivPublic,
	})
	c.handlers.Registry().Insert(s)

	t.Run("by id", func(t *testing.T) {
		got, err := c.findSession("7")
		require.NoError(t, err)
		assert.Same(t, s, got)
	})

	t.Run("by display name", func(t *testing.T) {
		got, err := c.findSession("Cookiezi")
		require.NoError(t, err)
		assert.Same(t, s, got)
	})

	t.Run("name lookup is case-sensitive", func(t *testing.T) {
		_, err := c.findSession("cookiezi")
		assert.Error(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := c.findSession("9999")
		assert.Error(t, err)
	})
}
