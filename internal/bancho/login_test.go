package bancho

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
)

func loginBody(username, password string) []byte {
	clientInfo := "b20250901|9|0|aa:bb:cc:dd:ee:|1"
	return []byte(fmt.Sprintf("%s\n%s\n%s\n", username, password, clientInfo))
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "cookiezi", "hunter2", session.PrivPublic|session.PrivNormal)

	token, resp := env.handlers.Login(context.Background(), loginBody("cookiezi", "hunter2"), http.Header{})
	require.NotEqual(t, NoToken, token)
	require.NotEmpty(t, token)

	t.Run("session is registered", func(t *testing.T) {
		s := env.registry.GetToken(token)
		require.NotNil(t, s)
		assert.Equal(t, int32(100), s.ID)
		assert.Equal(t, "cookiezi", s.Username())
		assert.Equal(t, int32(9), s.UTCOffset)
		assert.True(t, s.PrivateDMs)
	})

	t.Run("response packet order", func(t *testing.T) {
		assert.Equal(t, []packet.ID{
			packet.ChoProtocolVersion,
			packet.ChoUserID,
			packet.ChoPrivileges,
			packet.ChoChannelInfoEnd,
			packet.ChoMainMenuIcon,
			packet.ChoFriendsList,
			packet.ChoSilenceEnd,
			packet.ChoUserPresence,
			packet.ChoUserStats,
			packet.ChoNotification,
		}, frameIDs(t, resp))
	})

	t.Run("user id field", func(t *testing.T) {
		r := packet.NewReader(resp)

		id, length, err := r.ReadHeader()
		require.NoError(t, err)
		require.Equal(t, packet.ChoProtocolVersion, id)
		r.Advance(int(length))

		id, _, err = r.ReadHeader()
		require.NoError(t, err)
		require.Equal(t, packet.ChoUserID, id)
		userID, err := r.ReadInt32()
		require.NoError(t, err)
		assert.Equal(t, int32(100), userID)
	})
}

func TestLoginReconnectReplacesSession(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "cookiezi", "hunter2", session.PrivPublic|session.PrivNormal)

	first, _ := env.handlers.Login(context.Background(), loginBody("cookiezi", "hunter2"), http.Header{})
	second, _ := env.handlers.Login(context.Background(), loginBody("cookiezi", "hunter2"), http.Header{})

	assert.NotEqual(t, first, second)
	assert.Nil(t, env.registry.GetToken(first))
	assert.NotNil(t, env.registry.GetToken(second))
	assert.Equal(t, 1, env.registry.Count())
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	token, resp := env.handlers.Login(context.Background(), loginBody("nobody", "pw"), http.Header{})

	assert.Equal(t, NoToken, token)
	assert.Equal(t, []packet.ID{packet.ChoUserID}, frameIDs(t, resp))

	r := packet.NewReader(resp)
	_, _, err := r.ReadHeader()
	require.NoError(t, err)
	userID, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), userID)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "cookiezi", "hunter2", session.PrivPublic|session.PrivNormal)

	token, resp := env.handlers.Login(context.Background(), loginBody("cookiezi", "wrong"), http.Header{})

	assert.Equal(t, NoToken, token)
	assert.Equal(t, []packet.ID{packet.ChoUserID, packet.ChoNotification}, frameIDs(t, resp))
	assert.Zero(t, env.registry.Count())
}

func TestLoginMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"too few fields", []byte("user\npass\n")},
		{"bad client info", []byte("user\npass\nversion|only\n")},
		{"bad utc offset", []byte("user\npass\nv|notanumber|0|aa:bb:cc:dd:ee:|0\n")},
		{"too few hashes", []byte("user\npass\nv|0|0|aa:bb:|0\n")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, resp := env.handlers.Login(context.Background(), tc.body, http.Header{})
			assert.Equal(t, NoToken, token)
			assert.Empty(t, resp)
		})
	}
}

func TestLoginUsernameNormalization(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "Full Metal", "pw", session.PrivPublic|session.PrivNormal)

	token, _ := env.handlers.Login(context.Background(), loginBody("Full Metal", "pw"), http.Header{})
	require.NotEqual(t, NoToken, token)

	s := env.registry.GetToken(token)
	require.NotNil(t, s)
	assert.Equal(t, "Full Metal", s.Username())
}
