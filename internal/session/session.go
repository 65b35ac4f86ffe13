// Package session holds the server-side state for connected clients: the
// Session object itself, its outbound packet queue, and the concurrent
// registry of all live sessions.
package session

import (
	"sync"
	"time"
)

// ModeStats is the per-mode performance record shown in stats packets.
type ModeStats struct {
	RankedScore int64
	TotalScore  int64
	Accuracy    float32
	Playcount   int32
	PP          int16
	GlobalRank  int32
}

// Status is the client's current activity: what it is doing, on which map,
// with which mods and mode.
type Status struct {
	Action   Action
	InfoText string
	MapMD5   string
	Mods     Mods
	Mode     Mode
	MapID    int32
}

// Session represents one authenticated, connected client. The numeric id and
// token are stable for the session's lifetime; everything else is guarded by
// the session's own lock so one session's mutation does not block broadcasts
// to unrelated sessions.
type Session struct {
	ID    int32
	Token string

	CreatedAt     time.Time
	ClientVersion string
	UTCOffset     int32
	PrivateDMs    bool
	Country       string
	CountryCode   uint8
	Longitude     float32
	Latitude      float32
	SilenceEnd    int32

	mu         sync.RWMutex
	username   string
	privileges Privileges
	banchoPriv BanchoPrivileges
	status     Status
	stats      [ModeCount]ModeStats
	friends    map[int32]struct{}
	spectating int32 // id of the session being watched, 0 when none
	spectators []int32
	channels   map[string]*Channel

	queue *PacketQueue
}

// Params carries the immutable and store-derived fields for a new Session.
type Params struct {
	ID            int32
	Token         string
	Username      string
	Privileges    Privileges
	ClientVersion string
	UTCOffset     int32
	PrivateDMs    bool
	Country       string
	CountryCode   uint8
	Longitude     float32
	Latitude      float32
	SilenceEnd    int32
	Stats         [ModeCount]ModeStats
	Friends       []int32
}

// New creates a Session from login-time parameters.
func New(p Params) *Session {
	friends := make(map[int32]struct{}, len(p.Friends))
	for _, id := range p.Friends {
		friends[id] = struct{}{}
	}
	return &Session{
		ID:            p.ID,
		Token:         p.Token,
		CreatedAt:     time.Now(),
		ClientVersion: p.ClientVersion,
		UTCOffset:     p.UTCOffset,
		PrivateDMs:    p.PrivateDMs,
		Country:       p.Country,
		CountryCode:   p.CountryCode,
		Longitude:     p.Longitude,
		Latitude:      p.Latitude,
		SilenceEnd:    p.SilenceEnd,
		username:      p.Username,
		privileges:    p.Privileges,
		banchoPriv:    BanchoFromPrivileges(p.Privileges),
		status:        Status{Action: ActionIdle},
		stats:         p.Stats,
		friends:       friends,
		channels:      make(map[string]*Channel),
		queue:         NewPacketQueue(),
	}
}

// Username returns the current display name.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetUsername updates the display name. Only out-of-band admin actions call
// this.
func (s *Session) SetUsername(name string) {
	s.mu.Lock()
	s.username = name
	s.mu.Unlock()
}

// Privileges returns the account privilege bitset.
func (s *Session) Privileges() Privileges {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privileges
}

// SetPrivileges replaces the privilege bitset and rederives the client
// privilege byte.
func (s *Session) SetPrivileges(privs Privileges) {
	s.mu.Lock()
	s.privileges = privs
	s.banchoPriv = BanchoFromPrivileges(privs)
	s.mu.Unlock()
}

// Restricted reports whether the session lacks public visibility.
func (s *Session) Restricted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.privileges.Has(PrivPublic)
}

// Status returns the current status snapshot.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus replaces the status.
func (s *Session) SetStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Stats returns the performance record for a mode.
func (s *Session) Stats(mode Mode) ModeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[mode]
}

// SetStats replaces the performance record for a mode.
func (s *Session) SetStats(mode Mode, st ModeStats) {
	s.mu.Lock()
	s.stats[mode] = st
	s.mu.Unlock()
}

// FriendIDs returns the friend list as a slice.
func (s *Session) FriendIDs() []int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int32, 0, len(s.friends))
	for id := range s.friends {
		ids = append(ids, id)
	}
	return ids
}

// IsFriend reports whether id is in the friend list.
func (s *Session) IsFriend(id int32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.friends[id]
	return ok
}

// AddFriend inserts id into the friend list, reporting whether the list
// changed.
func (s *Session) AddFriend(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[id]; ok {
		return false
	}
	s.friends[id] = struct{}{}
	return true
}

// RemoveFriend deletes id from the friend list, reporting whether the list
// changed.
func (s *Session) RemoveFriend(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[id]; !ok {
		return false
	}
	delete(s.friends, id)
	return true
}

// Spectating returns the id of the session being watched, or 0.
func (s *Session) Spectating() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spectating
}

// Spectators returns the ids currently watching this session.
func (s *Session) Spectators() []int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int32, len(s.spectators))
	copy(out, s.spectators)
	return out
}

// Enqueue appends encoded packet bytes to the session's outbound queue.
func (s *Session) Enqueue(b []byte) {
	s.queue.Enqueue(b)
}

// Dequeue atomically drains the outbound queue.
func (s *Session) Dequeue() []byte {
	return s.queue.Dequeue()
}

// ClearSpectating drops the spectating pointer without touching a host,
// used when the host is already gone.
func (s *Session) ClearSpectating() {
	s.mu.Lock()
	s.spectating = 0
	s.mu.Unlock()
}

// lockPair acquires both sessions' locks in id order so that concurrent
// symmetric operations (A watching B while B watches A) cannot deadlock.
func lockPair(a, b *Session) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	if a.ID < b.ID {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
	return func() {
		a.mu.Unlock()
		b.mu.Unlock()
	}
}

// Spectate links watcher to host, keeping the paired fields consistent under
// both sessions' locks. It returns the host's prior spectator ids for
// fellow-spectator notifications, and whether the watcher was newly added
// rather than already on the list.
func Spectate(watcher, host *Session) (existing []int32, attached bool) {
	unlock := lockPair(watcher, host)
	defer unlock()

	existing = make([]int32, len(host.spectators))
	copy(existing, host.spectators)

	for _, id := range host.spectators {
		if id == watcher.ID {
			watcher.spectating = host.ID
			return existing[:0], false
		}
	}
	host.spectators = append(host.spectators, watcher.ID)
	watcher.spectating = host.ID
	return existing, true
}

// Unspectate removes the watcher from the host's spectators and clears the
// watcher's spectating pointer in one step. It returns the spectators left
// on the host.
func Unspectate(watcher, host *Session) (remaining []int32) {
	unlock := lockPair(watcher, host)
	defer unlock()

	watcher.spectating = 0
	for i, id := range host.spectators {
		if id == watcher.ID {
			host.spectators = append(host.spectators[:i], host.spectators[i+1:]...)
			break
		}
	}
	remaining = make([]int32, len(host.spectators))
	copy(remaining, host.spectators)
	return remaining
}
