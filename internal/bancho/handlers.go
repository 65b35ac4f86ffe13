// Package bancho implements the protocol endpoint: login, the packet
// dispatch loop, and the per-packet session protocol handlers.
package bancho

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gobancho-project/gobancho/internal/auth"
	"github.com/gobancho-project/gobancho/internal/events"
	"github.com/gobancho-project/gobancho/internal/geo"
	"github.com/gobancho-project/gobancho/internal/packet"
	"github.com/gobancho-project/gobancho/internal/session"
	"github.com/gobancho-project/gobancho/internal/store"
)

// Reserved account ids that can never be spectated.
const (
	botUserID    = 1
	systemUserID = 2
)

// Config carries the protocol-level settings handlers need.
type Config struct {
	ServerName      string
	ProtocolVersion int32
	MenuIcon        string
	MenuIconURL     string
}

// Handlers is the protocol handler set together with its collaborators. One
// instance serves all connections.
type Handlers struct {
	cfg      Config
	registry *session.Registry
	store    store.Store
	verifier *auth.Verifier
	resolver geo.Resolver
	channels map[string]*session.Channel
	bus      *events.Bus
	logger   zerolog.Logger
}

// NewHandlers creates the handler set. The default channel list is created
// here; chat itself lives outside this server.
func NewHandlers(cfg Config, registry *session.Registry, st store.Store, verifier *auth.Verifier, resolver geo.Resolver, bus *events.Bus) *Handlers {
	channels := map[string]*session.Channel{
		"#osu":      session.NewChannel("#osu", "The main channel.", true),
		"#announce": session.NewChannel("#announce", "Server announcements.", true),
	}
	return &Handlers{
		cfg:      cfg,
		registry: registry,
		store:    st,
		verifier: verifier,
		resolver: resolver,
		channels: channels,
		bus:      bus,
		logger:   log.With().Str("component", "bancho").Logger(),
	}
}

// Registry exposes the session registry to collaborators (control plane,
// CLI, monitor API).
func (h *Handlers) Registry() *session.Registry {
	return h.registry
}

// Ping replies with a pong on the caller's queue.
func (h *Handlers) Ping(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	s.Enqueue(packet.Pong())
	return false, nil
}

// RequestStatusUpdate enqueues the caller's own current stats snapshot.
func (h *Handlers) RequestStatusUpdate(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	s.Enqueue(s.StatsPacket())
	return false, nil
}

// UserStatsRequest enqueues the presence of each requested id that is
// registered and not restricted.
func (h *Handlers) UserStatsRequest(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	ids, err := r.ReadIntList()
	if err != nil {
		return false, fmt.Errorf("failed to read stats request ids: %w", err)
	}
	for _, id := range ids {
		target := h.registry.GetID(id)
		if target == nil || target.Restricted() {
			continue
		}
		s.Enqueue(target.PresencePacket())
	}
	return true, nil
}

// UserPresenceRequest enqueues the presence of each requested id that is
// registered. Unlike UserStatsRequest, restricted targets are included.
func (h *Handlers) UserPresenceRequest(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	ids, err := r.ReadIntList()
	if err != nil {
		return false, fmt.Errorf("failed to read presence request ids: %w", err)
	}
	for _, id := range ids {
		if target := h.registry.GetID(id); target != nil {
			s.Enqueue(target.PresencePacket())
		}
	}
	return true, nil
}

// UserPresenceRequestAll enqueues the presence of every registered,
// non-restricted session.
func (h *Handlers) UserPresenceRequestAll(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	for _, target := range h.registry.Snapshot() {
		if !target.Restricted() {
			s.Enqueue(target.PresencePacket())
		}
	}
	return false, nil
}

// FriendAdd inserts the target into the caller's friend list and persists
// the relationship. Adding an existing friend is a no-op.
func (h *Handlers) FriendAdd(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	target, err := r.ReadInt32()
	if err != nil {
		return false, fmt.Errorf("failed to read friend add target: %w", err)
	}
	if !s.AddFriend(target) {
		return true, nil
	}
	if err := h.store.AddFriend(ctx, s.ID, target); err != nil {
		return true, fmt.Errorf("failed to persist friend add: %w", err)
	}
	return true, nil
}

// FriendRemove deletes the target from the caller's friend list and the
// store. Removing a non-friend is a no-op.
func (h *Handlers) FriendRemove(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	target, err := r.ReadInt32()
	if err != nil {
		return false, fmt.Errorf("failed to read friend remove target: %w", err)
	}
	if !s.RemoveFriend(target) {
		return true, nil
	}
	if err := h.store.RemoveFriend(ctx, s.ID, target); err != nil {
		return true, fmt.Errorf("failed to persist friend remove: %w", err)
	}
	return true, nil
}

// ChangeAction updates the caller's status and, unless restricted,
// broadcasts the updated stats to every registered session. The effective
// game mode is derived from the raw mode byte and the mod bitset.
func (h *Handlers) ChangeAction(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	action, err := r.ReadUint8()
	if err != nil {
		return false, fmt.Errorf("failed to read action: %w", err)
	}
	infoText, err := r.ReadString()
	if err != nil {
		return false, fmt.Errorf("failed to read info text: %w", err)
	}
	mapMD5, err := r.ReadString()
	if err != nil {
		return false, fmt.Errorf("failed to read map md5: %w", err)
	}
	mods, err := r.ReadInt32()
	if err != nil {
		return false, fmt.Errorf("failed to read mods: %w", err)
	}
	rawMode, err := r.ReadUint8()
	if err != nil {
		return false, fmt.Errorf("failed to read mode: %w", err)
	}
	mapID, err := r.ReadInt32()
	if err != nil {
		return false, fmt.Errorf("failed to read map id: %w", err)
	}

	s.SetStatus(session.Status{
		Action:   session.Action(action),
		InfoText: infoText,
		MapMD5:   mapMD5,
		Mods:     session.Mods(mods),
		Mode:     session.ModeFromMods(rawMode, session.Mods(mods)),
		MapID:    mapID,
	})

	if !s.Restricted() {
		h.registry.Broadcast(s.StatsPacket())
	}
	return true, nil
}

// StartSpectating links the caller to the target session, notifying the
// host and its existing spectators.
func (h *Handlers) StartSpectating(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	targetID, err := r.ReadInt32()
	if err != nil {
		return false, fmt.Errorf("failed to read spectate target: %w", err)
	}
	if targetID == botUserID || targetID == systemUserID {
		return true, nil
	}

	host := h.registry.GetID(targetID)
	if host == nil {
		return true, nil
	}

	// Moving between hosts: detach from the previous one first.
	if prev := s.Spectating(); prev != 0 && prev != targetID {
		h.stopSpectating(s)
	}

	existing, attached := session.Spectate(s, host)
	if !attached {
		// Already watching this host; nothing to announce.
		return true, nil
	}

	joined := packet.FellowSpectatorJoined(s.ID)
	for _, id := range existing {
		if fellow := h.registry.GetID(id); fellow != nil {
			fellow.Enqueue(joined)
			s.Enqueue(packet.FellowSpectatorJoined(id))
		}
	}
	host.Enqueue(packet.SpectatorJoined(s.ID))
	return true, nil
}

// StopSpectating unlinks the caller from its host. A caller that is not
// spectating is a no-op.
func (h *Handlers) StopSpectating(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	h.stopSpectating(s)
	return false, nil
}

func (h *Handlers) stopSpectating(s *session.Session) {
	hostID := s.Spectating()
	if hostID == 0 {
		return
	}
	host := h.registry.GetID(hostID)
	if host == nil {
		// Host already torn down; just clear the pointer.
		s.ClearSpectating()
		return
	}

	remaining := session.Unspectate(s, host)

	left := packet.FellowSpectatorLeft(s.ID)
	for _, id := range remaining {
		if fellow := h.registry.GetID(id); fellow != nil {
			fellow.Enqueue(left)
		}
	}
	host.Enqueue(packet.SpectatorLeft(s.ID))
}

// CantSpectate tells the host and fellow spectators that the caller lacks
// the beatmap being played.
func (h *Handlers) CantSpectate(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	hostID := s.Spectating()
	if hostID == 0 {
		return false, nil
	}
	host := h.registry.GetID(hostID)
	if host == nil {
		return false, nil
	}

	cant := packet.NewWriter(packet.ChoSpectatorCantSpectate).WriteInt32(s.ID).Finalize()
	host.Enqueue(cant)
	for _, id := range host.Spectators() {
		if id == s.ID {
			continue
		}
		if fellow := h.registry.GetID(id); fellow != nil {
			fellow.Enqueue(cant)
		}
	}
	return false, nil
}

// SpectateFrames re-broadcasts the raw replay-frame payload, wrapped in the
// spectate-frames packet type, to every registered session.
func (h *Handlers) SpectateFrames(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	raw, err := r.ReadBytes(int(payloadLen))
	if err != nil {
		return false, fmt.Errorf("failed to read spectate frames: %w", err)
	}
	h.registry.Broadcast(packet.SpectateFrames(raw))
	return true, nil
}

// ChannelJoin adds the caller to a named channel when it exists.
func (h *Handlers) ChannelJoin(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	name, err := r.ReadString()
	if err != nil {
		return false, fmt.Errorf("failed to read channel name: %w", err)
	}
	c, ok := h.channels[name]
	if !ok {
		return true, nil
	}
	c.Join(s)
	s.Enqueue(packet.NewWriter(packet.ChoChannelJoinSuccess).WriteString(name).Finalize())
	return true, nil
}

// ChannelPart removes the caller from a named channel.
func (h *Handlers) ChannelPart(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	name, err := r.ReadString()
	if err != nil {
		return false, fmt.Errorf("failed to read channel name: %w", err)
	}
	if c, ok := h.channels[name]; ok {
		c.Leave(s)
	}
	return true, nil
}

// ReceiveUpdates records nothing; the filter value is accepted and ignored.
func (h *Handlers) ReceiveUpdates(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	return false, nil
}

// Logout deregisters the caller, detaches its spectating relationships,
// drops every channel membership, and, unless restricted, announces the
// departure to all other sessions.
func (h *Handlers) Logout(ctx context.Context, s *session.Session, r *packet.Reader, payloadLen uint32) (bool, error) {
	h.teardown(s)

	if !s.Restricted() {
		h.registry.BroadcastExcept(packet.UserLogout(s.ID), s.ID)
	}

	h.logger.Info().Int32("user_id", s.ID).Str("username", s.Username()).Msg("user logged out")
	h.bus.Emit(ctx, events.Event{
		Type:   events.EventUserLogout,
		Source: "bancho",
		Payload: events.SessionPayload{
			UserID:   s.ID,
			Username: s.Username(),
			Online:   h.registry.Count(),
		},
	})
	return false, nil
}

// teardown removes the session from the registry and unwinds every
// cross-session reference it holds: its own spectating pointer, everyone
// watching it, and its channel memberships.
func (h *Handlers) teardown(s *session.Session) {
	h.registry.Remove(s.ID)

	h.stopSpectating(s)
	for _, id := range s.Spectators() {
		if watcher := h.registry.GetID(id); watcher != nil {
			session.Unspectate(watcher, s)
			watcher.Enqueue(packet.Notification("The player you were watching has disconnected."))
		}
	}

	s.LeaveAllChannels()
}

// Kick forcibly disconnects a session. The next poll with the dead token
// gets a restart packet from the endpoint, which sends the client back to
// the login screen.
func (h *Handlers) Kick(ctx context.Context, s *session.Session, reason string) {
	h.teardown(s)

	if !s.Restricted() {
		h.registry.BroadcastExcept(packet.UserLogout(s.ID), s.ID)
	}

	h.logger.Info().
		Int32("user_id", s.ID).
		Str("username", s.Username()).
		Str("reason", reason).
		Msg("user kicked")
	h.bus.Emit(ctx, events.Event{
		Type:   events.EventUserLogout,
		Source: "cli",
		Payload: events.SessionPayload{
			UserID:   s.ID,
			Username: s.Username(),
			Online:   h.registry.Count(),
		},
	})
}

// HandleRestriction applies an externally triggered restriction: the session
// re-fetches its privilege bitset and the client is forced to relogin.
func (h *Handlers) HandleRestriction(ctx context.Context, s *session.Session) error {
	privs, err := h.store.Privileges(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("failed to refresh privileges for user %d: %w", s.ID, err)
	}
	s.SetPrivileges(privs)
	s.Enqueue(packet.ServerRestart(0))

	h.logger.Info().Int32("user_id", s.ID).Msg("session restricted")
	h.bus.Emit(ctx, events.Event{
		Type:   events.EventUserRestricted,
		Source: "control",
		Payload: events.SessionPayload{
			UserID:   s.ID,
			Username: s.Username(),
			Online:   h.registry.Count(),
		},
	})
	return nil
}
