// Package events implements the in-process publish-subscribe bus that glues
// the bancho core to its observers (telemetry, CLI). Handlers run
// asynchronously; the core never blocks on an observer.
package events

// EventType identifies a class of event.
type EventType string

const (
	// EventUserLogin fires after a session is registered.
	EventUserLogin EventType = "user.login"

	// EventUserLogout fires after a session is deregistered.
	EventUserLogout EventType = "user.logout"

	// EventUserRestricted fires when the control plane restricts a
	// connected session.
	EventUserRestricted EventType = "user.restricted"
)

// Event is a single bus message.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// SessionPayload describes the session an event concerns.
type SessionPayload struct {
	UserID   int32  `json:"user_id"`
	Username string `json:"username"`
	Online   int    `json:"online"`
}
