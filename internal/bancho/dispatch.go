package bancho

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
)

// HandlerFunc processes one inbound packet. The reader is positioned at the
// start of the packet's payload; payloadLen is the declared payload length.
// It returns true when it consumed its payload itself, or false to let the
// dispatch loop skip the payload by its declared length.
type HandlerFunc func(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (consumed bool, err error)

// tableEntry binds a packet type to its handler and the capability flag that
// admits it for restricted sessions.
type tableEntry struct {
	id         packet.ID
	name       string
	fn         HandlerFunc
	restricted bool // safe to invoke while restricted
}

// Dispatcher routes inbound packets to handlers. Two lookup tables are
// derived from one source table at construction: the full table, and the
// subset permitted for restricted sessions.
type Dispatcher struct {
	full       map[packet.ID]tableEntry
	restricted map[packet.ID]tableEntry
	logger     zerolog.Logger
}

// NewDispatcher builds the dispatch tables for the given handler set.
func NewDispatcher(h *Handlers) *Dispatcher {
	entries := []tableEntry{
		{packet.OsuPing, "ping", h.Ping, true},
		{packet.OsuLogout, "logout", h.Logout, true},
		{packet.OsuRequestStatusUpdate, "request_status_update", h.RequestStatusUpdate, true},
		{packet.OsuChangeAction, "change_action", h.ChangeAction, true},
		{packet.OsuFriendAdd, "friend_add", h.FriendAdd, true},
		{packet.OsuFriendRemove, "friend_remove", h.FriendRemove, true},
		{packet.OsuUserStatsRequest, "user_stats_request", h.UserStatsRequest, false},
		{packet.OsuUserPresenceRequest, "user_presence_request", h.UserPresenceRequest, false},
		{packet.OsuUserPresenceRequestAll, "user_presence_request_all", h.UserPresenceRequestAll, false},
		{packet.OsuStartSpectating, "start_spectating", h.StartSpectating, false},
		{packet.OsuStopSpectating, "stop_spectating", h.StopSpectating, false},
		{packet.OsuCantSpectate, "cant_spectate", h.CantSpectate, false},
		{packet.OsuSpectateFrames, "spectate_frames", h.SpectateFrames, false},
		{packet.OsuChannelJoin, "channel_join", h.ChannelJoin, false},
		{packet.OsuChannelPart, "channel_part", h.ChannelPart, false},
		{packet.OsuReceiveUpdates, "receive_updates", h.ReceiveUpdates, false},
	}

	d := &Dispatcher{
		full:       make(map[packet.ID]tableEntry, len(entries)),
		restricted: make(map[packet.ID]tableEntry),
		logger:     log.With().Str("component", "dispatch").Logger(),
	}
	for _, e := range entries {
		d.full[e.id] = e
		if e.restricted {
			d.restricted[e.id] = e
		}
	}
	return d
}

// Process feeds one request body through the dispatch loop for the given
// session. Unknown packet types, and types not permitted while restricted,
// are skipped by their declared length. Framing corruption aborts the
// remainder of the request; it never affects other sessions.
func (d *Dispatcher) Process(ctx context.Context, s *session.Session, body []byte) {
	r := packet.NewReader(body)

	for !r.Empty() {
		id, length, err := r.ReadHeader()
		if err != nil {
			d.logger.Warn().
				Err(err).
				Int32("user_id", s.ID).
				Msg("truncated frame header, aborting request")
			return
		}
		if int(length) > r.Remaining() {
			d.logger.Warn().
				Int16("packet_id", int16(id)).
				Uint32("declared_len", length).
				Int("remaining", r.Remaining()).
				Int32("user_id", s.ID).
				Msg("declared payload exceeds buffer, aborting request")
			return
		}
		payloadEnd := r.Offset() + int(length)

		table := d.full
		if s.Restricted() {
			table = d.restricted
		}

		entry, ok := table[id]
		if !ok {
			r.Advance(int(length))
			d.logger.Trace().
				Int16("packet_id", int16(id)).
				Uint32("len", length).
				Msg("skipped unhandled packet")
			continue
		}

		consumed, err := entry.fn(ctx, s, r, length)
		if err != nil {
			d.logger.Warn().
				Err(err).
				Str("handler", entry.name).
				Int32("user_id", s.ID).
				Msg("handler failed, skipping payload")
		}
		// Keep framing aligned for the next header whether or not the
		// handler consumed every field.
		if !consumed || r.Offset() != payloadEnd {
			r.Seek(payloadEnd)
		}

		if id != packet.OsuPing {
			d.logger.Debug().
				Str("handler", entry.name).
				Int32("user_id", s.ID).
				Msg("packet handled")
		}
	}
}
