package domain

import "time"

// AccountEventType names a lifecycle transition of an account.
type AccountEventType string

const (
	EventAccountCreated  AccountEventType = "created"
	EventAccountUpdated  AccountEventType = "updated"
	EventAccountDeleted  AccountEventType = "deleted"
	EventAccountSignedIn AccountEventType = "signed_in"
)

// AccountEvent is an audit record of something that happened to an account.
type AccountEvent struct {
	Type       AccountEventType
	AccountID  string
	ActorID    string // empty for self-service actions (signup, signin)
	OccurredAt time.Time
}
