// Package auth verifies client passwords against stored bcrypt hashes.
// Verification results are cached so that rapid client polls do not pay the
// bcrypt cost on every request, and the hashing itself runs on a bounded
// worker pool so concurrent logins cannot saturate the CPU.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL bounds how long a verified password stays cached.
const DefaultCacheTTL = 15 * time.Minute

// Verifier checks submitted passwords against stored bcrypt hashes. A cache
// entry maps the submitted password to the hash it last verified against; a
// hit is only valid while the user's stored hash is unchanged.
type Verifier struct {
	cache  *gocache.Cache
	group  singleflight.Group
	pool   *ants.Pool
	logger zerolog.Logger
}

// NewVerifier creates a Verifier with the given cache TTL and worker pool
// size. A non-positive TTL falls back to DefaultCacheTTL.
func NewVerifier(ttl time.Duration, poolSize int) (*Verifier, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bcrypt worker pool: %w", err)
	}

	return &Verifier{
		cache:  gocache.New(ttl, ttl),
		pool:   pool,
		logger: log.With().Str("component", "auth").Logger(),
	}, nil
}

// Release shuts the worker pool down.
func (v *Verifier) Release() {
	v.pool.Release()
}

// Verify reports whether password matches storedHash. Concurrent requests
// for the same password share one bcrypt comparison.
func (v *Verifier) Verify(ctx context.Context, password, storedHash string) (bool, error) {
	if cached, ok := v.cache.Get(password); ok {
		if cached.(string) == storedHash {
			return true, nil
		}
		// Stored hash changed since the entry was written; fall through to a
		// full comparison.
	}

	result, err, _ := v.group.Do(password, func() (interface{}, error) {
		done := make(chan error, 1)
		submitErr := v.pool.Submit(func() {
			done <- bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
		})
		if submitErr != nil {
			return false, fmt.Errorf("failed to submit bcrypt job: %w", submitErr)
		}

		select {
		case err := <-done:
			if err != nil {
				return false, nil
			}
			return true, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})
	if err != nil {
		return false, err
	}

	valid := result.(bool)
	if valid {
		v.cache.SetDefault(password, storedHash)
	}
	return valid, nil
}

// InvalidateHash drops every cache entry that verified against the given
// stored hash, used when a password change lands via the control plane.
func (v *Verifier) InvalidateHash(hash string) {
	for key, item := range v.cache.Items() {
		if s, ok := item.Object.(string); ok && s == hash {
			v.cache.Delete(key)
			v.logger.Debug().Msg("invalidated cached password verification")
		}
	}
}

// CacheLen returns the number of cached verifications.
func (v *Verifier) CacheLen() int {
	return v.cache.ItemCount()
}
