package session

// Action is the client's current activity kind, shown in stats panels.
type Action uint8

const (
	ActionIdle Action = iota
	ActionAfk
	ActionPlaying
	ActionEditing
	ActionModding
	ActionMultiplayer
	ActionWatching
	ActionUnknown
	ActionTesting
	ActionSubmitting
	ActionPaused
	ActionLobby
	ActionMultiplaying
	ActionOsuDirect
)
