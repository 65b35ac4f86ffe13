package bancho

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gobancho-project/gobancho/internal/events"
	"github.com/gobancho-project/gobancho/internal/geo"
	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
	"github.com/gobancho-project/gobancho/internal/store"
)

// NoToken is the token value signalling "no session" to the client.
const NoToken = "no"

// loginRecord is the parsed plaintext login request body.
type loginRecord struct {
	username      string
	password      string
	clientVersion string
	utcOffset     int32
	clientHashes  []string
	privateDMs    bool
}

// parseLoginRecord parses the newline/pipe-delimited login body. Any
// deviation from the expected shape is a malformed request.
func parseLoginRecord(body []byte) (*loginRecord, error) {
	fields := strings.Split(string(body), "\n")
	if len(fields) != 4 {
		return nil, fmt.Errorf("expected 4 login fields, got %d", len(fields))
	}

	clientInfo := strings.Split(fields[2], "|")
	if len(clientInfo) != 5 {
		return nil, fmt.Errorf("expected 5 client-info fields, got %d", len(clientInfo))
	}

	offset, err := strconv.ParseInt(clientInfo[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", clientInfo[1], err)
	}

	hashBlock := clientInfo[3]
	if len(hashBlock) > 0 {
		hashBlock = hashBlock[:len(hashBlock)-1] // strip trailing delimiter
	}
	hashes := strings.Split(hashBlock, ":")
	if len(hashes) < 5 {
		return nil, fmt.Errorf("expected 5 client hashes, got %d", len(hashes))
	}

	return &loginRecord{
		username:      fields[0],
		password:      fields[1],
		clientVersion: clientInfo[0],
		utcOffset:     int32(offset),
		clientHashes:  hashes,
		privateDMs:    clientInfo[4] == "1",
	}, nil
}

// Login authenticates a first-contact request and builds the login response.
// It returns the session token for the cho-token response header (NoToken on
// any failure) and the response body packet stream.
func (h *Handlers) Login(ctx context.Context, body []byte, headers http.Header) (string, []byte) {
	start := time.Now()

	record, err := parseLoginRecord(body)
	if err != nil {
		h.logger.Debug().Err(err).Msg("malformed login request")
		return NoToken, nil
	}

	user, err := h.store.UserByUsername(ctx, store.NormalizeUsername(record.username))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error().Err(err).Msg("user lookup failed")
		}
		return NoToken, packet.UserID(-1)
	}

	valid, err := h.verifier.Verify(ctx, record.password, user.PasswordBcrypt)
	if err != nil {
		h.logger.Error().Err(err).Msg("password verification failed")
		return NoToken, packet.UserID(-1)
	}
	if !valid {
		resp := packet.UserID(-1)
		resp = append(resp, packet.Notification("Incorrect password")...)
		return NoToken, resp
	}

	loc, err := h.lookupLocation(headers)
	if err != nil {
		h.logger.Error().Err(err).Msg("geolocation lookup failed")
		return NoToken, packet.UserID(-1)
	}

	stats, err := h.store.AllStats(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats lookup failed")
		return NoToken, packet.UserID(-1)
	}
	friends, err := h.store.Friends(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("friends lookup failed")
		return NoToken, packet.UserID(-1)
	}

	s := session.New(session.Params{
		ID:            user.ID,
		Token:         uuid.NewString(),
		Username:      user.Username,
		Privileges:    user.Privileges,
		ClientVersion: record.clientVersion,
		UTCOffset:     record.utcOffset,
		PrivateDMs:    record.privateDMs,
		Country:       user.Country,
		CountryCode:   geo.CountryCode(user.Country),
		Longitude:     loc.Longitude,
		Latitude:      loc.Latitude,
		SilenceEnd:    user.SilenceEnd,
		Stats:         stats,
		Friends:       friends,
	})

	var resp []byte
	resp = append(resp, packet.ProtocolVersion(h.cfg.ProtocolVersion)...)
	resp = append(resp, packet.UserID(s.ID)...)
	resp = append(resp, packet.BanchoPrivileges(int32(session.BanchoFromPrivileges(user.Privileges)))...)
	resp = append(resp, packet.ChannelInfoEnd()...)
	resp = append(resp, packet.MainMenuIcon(h.cfg.MenuIcon, h.cfg.MenuIconURL)...)
	resp = append(resp, packet.FriendsList(friends)...)
	resp = append(resp, packet.SilenceEnd(user.SilenceEnd)...)
	resp = append(resp, s.PresencePacket()...)
	resp = append(resp, s.StatsPacket()...)

	if replaced := h.registry.Insert(s); replaced != nil {
		// Reconnect: the prior session's queue dies with it.
		h.logger.Debug().Int32("user_id", s.ID).Msg("replaced existing session on login")
	}

	resp = append(resp, packet.Notification(fmt.Sprintf(
		"Welcome to %s!\n\nTime Elapsed: %s\nPlayers online: %d",
		h.cfg.ServerName, time.Since(start).Round(time.Microsecond), h.registry.Count(),
	))...)

	h.logger.Info().
		Int32("user_id", s.ID).
		Str("username", user.Username).
		Msg("user logged in")

	h.bus.Emit(ctx, events.Event{
		Type:   events.EventUserLogin,
		Source: "bancho",
		Payload: events.SessionPayload{
			UserID:   s.ID,
			Username: user.Username,
			Online:   h.registry.Count(),
		},
	})

	return s.Token, resp
}

// lookupLocation resolves the caller's coordinates from its proxy headers.
// Requests with no usable client IP resolve to the zero location rather than
// failing the login.
func (h *Handlers) lookupLocation(headers http.Header) (geo.Location, error) {
	raw := geo.ClientIP(headers)
	if raw == "" {
		return geo.Location{}, nil
	}
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return geo.Location{}, nil
	}
	return h.resolver.Lookup(ip)
}
