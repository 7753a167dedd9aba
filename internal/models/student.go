package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a registered participant. SocketID tracks the current
// connection and is empty while disconnected; the row is deleted outright on
// disconnect and recreated (or rebound by name) on the next registration.
type Student struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	SocketID string    `json:"-"`
	IsKicked bool      `json:"isKicked"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Answer is one student's single recorded response to one poll. At most one
// exists per (student, poll) pair.
type Answer struct {
	ID          uuid.UUID `json:"id"`
	StudentID   uuid.UUID `json:"studentId"`
	PollID      uuid.UUID `json:"pollId"`
	OptionID    uuid.UUID `json:"selectedOption"`
	IsCorrect   bool      `json:"isCorrect"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Message is one chat line. Append-only.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	SocketID  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
