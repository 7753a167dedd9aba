package models

import (
	"time"

	"github.com/google/uuid"
)

// Option is one selectable answer of a poll.
type Option struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"-"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"isCorrect"`
	Position  int       `json:"-"`
}

// Poll is a single question broadcast to the classroom. Immutable once
// created; the newest poll is the current one.
type Poll struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"text"`
	Options   []Option  `json:"options"`
	TimeLimit int       `json:"timeLimit"` // seconds
	CreatedAt time.Time `json:"createdAt"`
}

// PollResults maps option id to vote count. Every option of the poll is
// present, zero-vote options included.
type PollResults struct {
	Answers map[string]int `json:"answers"`
}

// PollState is the full view a client needs to reconstruct the current poll
// after a reconnect. All fields except Poll are omitted when no poll exists.
type PollState struct {
	Poll             *Poll        `json:"poll"`
	Results          *PollResults `json:"results,omitempty"`
	RemainingSeconds *int         `json:"remainingSeconds,omitempty"`
	IsActive         *bool        `json:"isActive,omitempty"`
	CanAskNew        *bool        `json:"canAskNew,omitempty"`
	ServerTime       *int64       `json:"serverTime,omitempty"` // unix ms
	HasResponded     *bool        `json:"hasResponded,omitempty"`
}

// HistoryOption is an option enriched with its vote tally for history views.
type HistoryOption struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"isCorrect"`
	Count      int       `json:"count"`
	Percentage int       `json:"percentage"`
}

// HistoryItem is one past poll with its aggregated outcome.
type HistoryItem struct {
	ID        uuid.UUID       `json:"id"`
	Question  string          `json:"question"`
	Options   []HistoryOption `json:"options"`
	CreatedAt time.Time       `json:"createdAt"`
}
