package session

import "sync"

// Channel is a named broadcast group of sessions. Chat itself is handled
// elsewhere; the channel exists so that session teardown can drop every
// membership before the session is discarded.
type Channel struct {
	Name        string
	Description string
	AutoJoin    bool

	mu      sync.Mutex
	members map[int32]*Session
}

// NewChannel creates an empty channel.
func NewChannel(name, description string, autoJoin bool) *Channel {
	return &Channel{
		Name:        name,
		Description: description,
		AutoJoin:    autoJoin,
		members:     make(map[int32]*Session),
	}
}

// Join adds a session to the channel and records the membership on the
// session.
func (c *Channel) Join(s *Session) {
	c.mu.Lock()
	c.members[s.ID] = s
	c.mu.Unlock()

	s.mu.Lock()
	s.channels[c.Name] = c
	s.mu.Unlock()
}

// Leave removes a session from the channel and drops the membership from the
// session.
func (c *Channel) Leave(s *Session) {
	c.mu.Lock()
	delete(c.members, s.ID)
	c.mu.Unlock()

	s.mu.Lock()
	delete(s.channels, c.Name)
	s.mu.Unlock()
}

// MemberCount returns the number of joined sessions.
func (c *Channel) MemberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// Broadcast enqueues encoded packet bytes onto every member's queue.
func (c *Channel) Broadcast(b []byte) {
	c.mu.Lock()
	members := make([]*Session, 0, len(c.members))
	for _, s := range c.members {
		members = append(members, s)
	}
	c.mu.Unlock()

	for _, s := range members {
		s.Enqueue(b)
	}
}

// LeaveAllChannels removes the session from every channel it belongs to.
// Called during logout before the session is discarded.
func (s *Session) LeaveAllChannels() {
	s.mu.Lock()
	channels := make([]*Channel, 0, len(s.channels))
	for _, c := range s.channels {
		channels = append(channels, c)
	}
	s.channels = make(map[string]*Channel)
	s.mu.Unlock()

	for _, c := range channels {
		c.mu.Lock()
		delete(c.members, s.ID)
		c.mu.Unlock()
	}
}

// Channels returns the names of the channels the session belongs to.
func (s *Session) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	return names
}
