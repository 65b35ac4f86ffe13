package packet

import "fmt"

// ---- Pre-built packet constructors ----

// UserID creates a CHO_USER_ID packet. Negative ids signal login failure to
// the client; -1 is the generic "authentication failed" value.
func UserID(id int32) []byte {
	return NewWriter(ChoUserID).WriteInt32(id).Finalize()
}

// Notification creates a CHO_NOTIFICATION packet with a message shown as a
// client-side toast.
func Notification(message string) []byte {
	return NewWriter(ChoNotification).WriteString(message).Finalize()
}

// ProtocolVersion creates a CHO_PROTOCOL_VERSION packet.
func ProtocolVersion(version int32) []byte {
	return NewWriter(ChoProtocolVersion).WriteInt32(version).Finalize()
}

// BanchoPrivileges creates a CHO_PRIVILEGES packet.
func BanchoPrivileges(privs int32) []byte {
	return NewWriter(ChoPrivileges).WriteInt32(privs).Finalize()
}

// ChannelInfoEnd creates the empty CHO_CHANNEL_INFO_END marker packet.
func ChannelInfoEnd() []byte {
	return NewWriter(ChoChannelInfoEnd).Finalize()
}

// MainMenuIcon creates a CHO_MAIN_MENU_ICON packet from an icon image URL and
// a click-through URL.
func MainMenuIcon(icon, link string) []byte {
	return NewWriter(ChoMainMenuIcon).WriteString(fmt.Sprintf("%s|%s", icon, link)).Finalize()
}

// FriendsList creates a CHO_FRIENDS_LIST packet.
func FriendsList(friendIDs []int32) []byte {
	return NewWriter(ChoFriendsList).WriteIntList(friendIDs).Finalize()
}

// SilenceEnd creates a CHO_SILENCE_END packet with the unix timestamp at
// which the user's silence expires (zero when not silenced).
func SilenceEnd(end int32) []byte {
	return NewWriter(ChoSilenceEnd).WriteInt32(end).Finalize()
}

// Pong creates the empty CHO_PONG keepalive reply.
func Pong() []byte {
	return NewWriter(ChoPong).Finalize()
}

// ServerRestart creates a CHO_RESTART packet instructing the client to
// reconnect after the given number of milliseconds.
func ServerRestart(delayMS int32) []byte {
	return NewWriter(ChoRestart).WriteInt32(delayMS).Finalize()
}

// UserLogout creates a CHO_USER_LOGOUT packet announcing that a user left.
func UserLogout(userID int32) []byte {
	return NewWriter(ChoUserLogout).WriteInt32(userID).WriteUint8(0).Finalize()
}

// SpectatorJoined creates a CHO_SPECTATOR_JOINED packet sent to the host.
func SpectatorJoined(userID int32) []byte {
	return NewWriter(ChoSpectatorJoined).WriteInt32(userID).Finalize()
}

// SpectatorLeft creates a CHO_SPECTATOR_LEFT packet sent to the host.
func SpectatorLeft(userID int32) []byte {
	return NewWriter(ChoSpectatorLeft).WriteInt32(userID).Finalize()
}

// FellowSpectatorJoined creates a CHO_FELLOW_SPECTATOR_JOINED packet sent to
// the host's other spectators.
func FellowSpectatorJoined(userID int32) []byte {
	return NewWriter(ChoFellowSpectatorJoined).WriteInt32(userID).Finalize()
}

// FellowSpectatorLeft creates a CHO_FELLOW_SPECTATOR_LEFT packet sent to the
// host's other spectators.
func FellowSpectatorLeft(userID int32) []byte {
	return NewWriter(ChoFellowSpectatorLeft).WriteInt32(userID).Finalize()
}

// SpectateFrames wraps a raw replay-frame payload in a CHO_SPECTATE_FRAMES
// packet. The payload is opaque to the server and relayed as-is.
func SpectateFrames(raw []byte) []byte {
	return NewWriter(ChoSpectateFrames).WriteBytes(raw).Finalize()
}
