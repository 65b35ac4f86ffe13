package geo

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	mk := func(pairs ...string) http.Header {
		h := http.Header{}
		for i := 0; i < len(pairs); i += 2 {
			h.Set(pairs[i], pairs[i+1])
		}
		return h
	}

	t.Run("cloudflare header wins", func(t *testing.T) {
		h := mk("CF-Connecting-IP", "1.1.1.1", "X-Forwarded-For", "2.2.2.2, 10.0.0.1", "X-Real-IP", "3.3.3.3")
		assert.Equal(t, "1.1.1.1", ClientIP(h))
	})

	t.Run("forwarded chain takes first hop", func(t *testing.T) {
		h := mk("X-Forwarded-For", "2.2.2.2, 10.0.0.1, 10.0.0.2", "X-Real-IP", "3.3.3.3")
		assert.Equal(t, "2.2.2.2", ClientIP(h))
	})

	t.Run("single forwarded hop defers to real ip", func(t *testing.T) {
		h := mk("X-Forwarded-For", "2.2.2.2", "X-Real-IP", "3.3.3.3")
		assert.Equal(t, "3.3.3.3", ClientIP(h))
	})

	t.Run("real ip is the fallback", func(t *testing.T) {
		assert.Equal(t, "3.3.3.3", ClientIP(mk("X-Real-IP", "3.3.3.3")))
	})

	t.Run("no headers yields empty", func(t *testing.T) {
		assert.Equal(t, "", ClientIP(http.Header{}))
	})
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, uint8(111), CountryCode("JP"))
	assert.Equal(t, CountryCode("JP"), CountryCode("jp"))
	assert.Equal(t, CountryCode("XX"), CountryCode("ZZ-unknown"))
	assert.NotZero(t, CountryCode("US"))
}
