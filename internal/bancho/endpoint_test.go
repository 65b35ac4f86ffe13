package bancho

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
)

func newTestRouter(t *testing.T, env *testEnv) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewEndpoint(env.handlers, env.dispatcher).Register(router)
	return router
}

func post(router *gin.Engine, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("User-Agent", "osu!")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEndpointIndex(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(t, env)

	t.Run("browser GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "testbancho")
	})

	t.Run("non-osu POST gets the index too", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("x")))
		req.Header.Set("User-Agent", "curl/8.0")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "testbancho")
	})
}

func TestEndpointLogin(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "cookiezi", "hunter2", session.PrivPublic|session.PrivNormal)
	router := newTestRouter(t, env)

	t.Run("success sets cho-token", func(t *testing.T) {
		w := post(router, loginBody("cookiezi", "hunter2"), nil)

		require.Equal(t, http.StatusOK, w.Code)
		token := w.Header().Get("cho-token")
		require.NotEmpty(t, token)
		require.NotEqual(t, NoToken, token)

		assert.NotNil(t, env.registry.GetToken(token))
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	})

	t.Run("bad password yields no token", func(t *testing.T) {
		w := post(router, loginBody("cookiezi", "wrong"), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, NoToken, w.Header().Get("cho-token"))
		assert.Equal(t,
			[]packet.ID{packet.ChoUserID, packet.ChoNotification},
			frameIDs(t, w.Body.Bytes()))
	})
}

func TestEndpointAuthenticatedPoll(t *testing.T) {
	env := newTestEnv(t)
	env.store.addUser(100, "cookiezi", "hunter2", session.PrivPublic|session.PrivNormal)
	router := newTestRouter(t, env)

	login := post(router, loginBody("cookiezi", "hunter2"), nil)
	token := login.Header().Get("cho-token")
	require.NotEqual(t, NoToken, token)

	t.Run("ping round-trip", func(t *testing.T) {
		w := post(router, frame(packet.OsuPing, nil), map[string]string{"osu-token": token})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []packet.ID{packet.ChoPong}, frameIDs(t, w.Body.Bytes()))
	})

	t.Run("empty poll returns queued packets only", func(t *testing.T) {
		env.registry.GetToken(token).Enqueue(packet.Notification("hi"))

		w := post(router, nil, map[string]string{"osu-token": token})
		assert.Equal(t, []packet.ID{packet.ChoNotification}, frameIDs(t, w.Body.Bytes()))
	})

	t.Run("unknown token forces a relogin", func(t *testing.T) {
		w := post(router, frame(packet.OsuPing, nil), map[string]string{"osu-token": "stale"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []packet.ID{packet.ChoRestart}, frameIDs(t, w.Body.Bytes()))
	})
}
