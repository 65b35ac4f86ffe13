// Package geo resolves client IP addresses to coordinates for presence
// packets, backed by a MaxMind database file.
package geo

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// Location is a resolved latitude/longitude pair.
type Location struct {
	Latitude  float32
	Longitude float32
}

// Resolver maps an IP address to a location.
type Resolver interface {
	Lookup(ip net.IP) (Location, error)
	Close() error
}

// MaxMindResolver implements Resolver on a MaxMind mmdb file.
type MaxMindResolver struct {
	db *geoip2.Reader
}

// OpenMaxMind opens a MaxMind city database.
func OpenMaxMind(path string) (*MaxMindResolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geolocation database %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("geolocation database opened")
	return &MaxMindResolver{db: db}, nil
}

// Lookup resolves an IP to coordinates.
func (r *MaxMindResolver) Lookup(ip net.IP) (Location, error) {
	city, err := r.db.City(ip)
	if err != nil {
		return Location{}, fmt.Errorf("geolocation lookup failed for %s: %w", ip, err)
	}
	return Location{
		Latitude:  float32(city.Location.Latitude),
		Longitude: float32(city.Location.Longitude),
	}, nil
}

// Close closes the underlying database.
func (r *MaxMindResolver) Close() error {
	return r.db.Close()
}

// NopResolver resolves every IP to the zero location. Used when no
// geolocation database is configured.
type NopResolver struct{}

func (NopResolver) Lookup(net.IP) (Location, error) { return Location{}, nil }
func (NopResolver) Close() error                    { return nil }

// ClientIP extracts the caller's IP from proxy headers, checked in priority
// order: the trusted proxy header, then the forwarded-for chain, falling
// back to the real-IP header when the chain has exactly one hop.
func ClientIP(h http.Header) string {
	if ip := h.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		if len(hops) != 1 {
			return strings.TrimSpace(hops[0])
		}
	}
	return h.Get("X-Real-IP")
}
