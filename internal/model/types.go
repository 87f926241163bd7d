package model

import "time"

// DefaultStartingPoints is the balance granted to every new account,
// including the bootstrap administrator.
const DefaultStartingPoints = 1000

// Direction is the side of a binary event a wager backs.
type Direction string

const (
	DirectionYes Direction = "yes"
	DirectionNo  Direction = "no"
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionYes:
		return DirectionYes, true
	case DirectionNo:
		return DirectionNo, true
	}
	return "", false
}

// Status is an event's lifecycle state. Transitions are one-directional:
// open -> closed -> resolved, or open -> resolved directly.
type Status string

const (
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
	StatusResolved Status = "resolved"
)

// Outcome is the settled result of an event. It is the empty sentinel
// until the event transitions to resolved, then frozen.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeYes  Outcome = "yes"
	OutcomeNo   Outcome = "no"
)

// ParseOutcome validates a raw outcome string. The empty sentinel is not
// a valid input.
func ParseOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeYes:
		return OutcomeYes, true
	case OutcomeNo:
		return OutcomeNo, true
	}
	return "", false
}

// Account is a user record. Accounts are never deleted; points never go
// negative.
type Account struct {
	Username     string    // Primary key
	PasswordHash string    // PBKDF2-SHA512 digest, hex
	Salt         string    // Per-account random salt, hex
	IsAdmin      bool      // Administrator flag
	Points       int       // Current balance
	CreatedAt    time.Time // Registration time
}

// Event is a binary market created by a user. Base prices are integers
// in [1,99]; base_no is derived as clamp(100-base_yes, 1, 99).
type Event struct {
	ID           string    // Primary key (UUID)
	Description  string    // Display text
	BaseYesPrice int       // YES price before demand adjustment
	BaseNoPrice  int       // NO price before demand adjustment
	Status       Status    // Lifecycle state
	Outcome      Outcome   // Settled result, empty until resolved
	CreatedBy    string    // Username of the creator
	CreatedAt    time.Time // Creation time
}

// Wager links an account to an event with a locked-in direction and
// price. Wagers are append-only: never mutated or deleted.
type Wager struct {
	ID        string    // Primary key (UUID)
	EventID   string    // Foreign key to Event
	Username  string    // Foreign key to Account
	Direction Direction // Backed side
	Price     int       // Points debited at placement time
	CreatedAt time.Time // Placement time
}
