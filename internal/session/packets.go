package session

import "github.com/gobancho-project/gobancho/internal/packet"

// PresencePacket builds this session's CHO_USER_PRESENCE packet from a
// consistent snapshot of its fields.
func (s *Session) PresencePacket() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := packet.NewWriter(packet.ChoUserPresence)
	w.WriteInt32(s.ID)
	w.WriteString(s.username)
	w.WriteUint8(uint8(s.UTCOffset + 24))
	w.WriteUint8(s.CountryCode)
	w.WriteUint8(uint8(s.banchoPriv) | uint8(s.status.Mode)<<5)
	w.WriteFloat32(s.Longitude)
	w.WriteFloat32(s.Latitude)
	w.WriteInt32(s.stats[s.status.Mode].GlobalRank)
	return w.Finalize()
}

// StatsPacket builds this session's CHO_USER_STATS packet from a consistent
// snapshot of its status and current-mode performance record.
func (s *Session) StatsPacket() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.status
	stats := s.stats[st.Mode]

	w := packet.NewWriter(packet.ChoUserStats)
	w.WriteInt32(s.ID)
	w.WriteUint8(uint8(st.Action))
	w.WriteString(st.InfoText)
	w.WriteString(st.MapMD5)
	w.WriteInt32(int32(st.Mods))
	w.WriteUint8(uint8(st.Mode))
	w.WriteInt32(st.MapID)
	w.WriteInt64(stats.RankedScore)
	w.WriteFloat32(stats.Accuracy / 100.0)
	w.WriteInt32(stats.Playcount)
	w.WriteInt64(stats.TotalScore)
	w.WriteInt32(stats.GlobalRank)
	w.WriteInt16(stats.PP)
	return w.Finalize()
}
