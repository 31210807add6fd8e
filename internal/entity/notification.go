package entity

import "time"

// Outbound actions delivered to clients.
const (
	ActionUpdateSelf           = "updateSelf"
	ActionJoined               = "joined"
	ActionGetChallengeResponse = "getChallengeResponse"
	ActionWaitForResponse      = "waitForResponse"
	ActionChallengeRefused     = "challengeRefused"
	ActionChallengeFailed      = "challengeFailed"
	ActionBeginGame            = "beginGame"
	ActionRejoinGame           = "rejoinGame"
	ActionRejoined             = "rejoined"
	ActionDrawPlay             = "drawPlay"
	ActionLeave                = "leave"
	ActionError                = "error"
)

// Notification is an outbound event. Payload must be JSON serializable.
type Notification struct {
	Action  string
	Payload any
}

type UpdateSelfPayload struct {
	Users  []PresenceEntry `json:"users"`
	UserID string          `json:"userId,omitempty"`
}

type JoinedPayload struct {
	User      PresenceEntry `json:"user"`
	Timestamp time.Time     `json:"timestamp"`
}

type ChallengeResponsePayload struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
}

type WaitForResponsePayload struct {
	UserID string `json:"userId"`
}

type ChallengeFailedPayload struct {
	ConnectionID string `json:"connectionId"`
	Reason       string `json:"reason"`
}

type BeginGamePayload struct {
	Game GameView `json:"game"`
}

type RejoinGamePayload struct {
	Users  []PresenceEntry `json:"users"`
	UserID string          `json:"userId"`
	Game   GameView        `json:"game"`
}

type RejoinedPayload struct {
	UserID string `json:"userId"`
}

type DrawPlayPayload struct {
	Row  int      `json:"row"`
	Col  int      `json:"col"`
	Game GameView `json:"game"`
	Mark string   `json:"mark"`
}

type LeavePayload struct {
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}
