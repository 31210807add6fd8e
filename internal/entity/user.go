package entity

import (
	"fmt"
	"time"
)

// ConnectionStatus is the coarse lobby state of a user.
type ConnectionStatus int

const (
	StatusConnected ConnectionStatus = iota
	StatusDisconnected
	StatusRefreshed
	StatusChallenged
	StatusChallenging
	StatusPlaying
)

var statusNames = map[ConnectionStatus]string{
	StatusConnected:    "connected",
	StatusDisconnected: "disconnected",
	StatusRefreshed:    "refreshed",
	StatusChallenged:   "challenged",
	StatusChallenging:  "challenging",
	StatusPlaying:      "playing",
}

func (that ConnectionStatus) String() string {
	if name, ok := statusNames[that]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(that))
}

func (that ConnectionStatus) MarshalText() ([]byte, error) {
	if _, ok := statusNames[that]; !ok {
		return nil, fmt.Errorf("unknown connection status %d", int(that))
	}
	return []byte(that.String()), nil
}

func (that *ConnectionStatus) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*that = status
			return nil
		}
	}
	return fmt.Errorf("unknown connection status %q", text)
}

// ConnectionSession is one physical connection window of a user.
// A zero DisconnectedAt means the session is still open.
type ConnectionSession struct {
	ConnectionID   string
	ConnectedAt    time.Time
	DisconnectedAt time.Time
}

func (that *ConnectionSession) IsOpen() bool {
	return that.DisconnectedAt.IsZero()
}

func (that *ConnectionSession) Duration(now time.Time) time.Duration {
	if that.IsOpen() {
		return now.Sub(that.ConnectedAt)
	}
	return that.DisconnectedAt.Sub(that.ConnectedAt)
}

// UserIdentity is a durable user and its chronological, append-only session history.
type UserIdentity struct {
	ID       string
	Status   ConnectionStatus
	Sessions []*ConnectionSession
}

func NewUserIdentity(id string) *UserIdentity {
	return &UserIdentity{
		ID:     id,
		Status: StatusConnected,
	}
}

// OpenSession closes the currently open session, if any, and appends a new open one.
// It returns the session that was closed or nil.
func (that *UserIdentity) OpenSession(connectionID string, now time.Time) *ConnectionSession {
	closed := that.CloseOpenSession(now)

	that.Sessions = append(that.Sessions, &ConnectionSession{
		ConnectionID: connectionID,
		ConnectedAt:  now,
	})

	return closed
}

// CloseOpenSession stamps the disconnect time of the open session and returns it.
func (that *UserIdentity) CloseOpenSession(now time.Time) *ConnectionSession {
	session := that.OpenSessionInfo()
	if session == nil {
		return nil
	}

	session.DisconnectedAt = now
	return session
}

// CloseSession closes the open session with the given connection id.
func (that *UserIdentity) CloseSession(connectionID string, now time.Time) bool {
	session := that.OpenSessionInfo()
	if session == nil || session.ConnectionID != connectionID {
		return false
	}

	session.DisconnectedAt = now
	return true
}

func (that *UserIdentity) OpenSessionInfo() *ConnectionSession {
	for _, session := range that.Sessions {
		if session.IsOpen() {
			return session
		}
	}
	return nil
}

func (that *UserIdentity) IsOnline() bool {
	return that.OpenSessionInfo() != nil
}

// LatestConnectionID returns the connection id of the most recent session.
func (that *UserIdentity) LatestConnectionID() string {
	if len(that.Sessions) == 0 {
		return ""
	}
	return that.Sessions[len(that.Sessions)-1].ConnectionID
}

// SessionDuration sums the length of every session, counting open ones up to now.
func (that *UserIdentity) SessionDuration(now time.Time) time.Duration {
	var total time.Duration
	for _, session := range that.Sessions {
		total += session.Duration(now)
	}
	return total
}

func (that *UserIdentity) Presence() PresenceEntry {
	return PresenceEntry{
		UserID:       that.ID,
		Status:       that.Status,
		ConnectionID: that.LatestConnectionID(),
	}
}

// PresenceEntry is the lobby view of one user.
type PresenceEntry struct {
	UserID       string           `json:"userId"`
	Status       ConnectionStatus `json:"status"`
	ConnectionID string           `json:"connectionId"`
}
