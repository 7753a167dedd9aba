package realtime

import (
	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

// Inbound events.
const (
	EventRegisterStudent     = "register-student"
	EventRequestParticipants = "request-participants"
	EventChatMessage         = "chat:message"
	EventGetAllMessages      = "get-all-messages"
	EventCreatePoll          = "create-poll"
	EventSubmitAnswer        = "submit-answer"
	EventRequestPollState    = "request-poll-state"
	EventTimeout             = "timeout"
	EventGetPollHistory      = "get-poll-history"
	EventKickStudent         = "kick-student"
)

// Outbound events.
const (
	EventRegistrationSuccess = "registration:success"
	EventRegistrationError   = "registration:error"
	EventParticipantsUpdate  = "participants:update"
	EventChatMessages        = "chat:messages"
	EventPollStarted         = "poll-started"
	EventPollStatus          = "poll-status"
	EventPollResults         = "poll-results"
	EventPollState           = "poll-state"
	EventPollHistory         = "poll-history"
	EventPollError           = "poll:error"
	EventAnswerError         = "answer:error"
	EventHistoryError        = "history:error"
	EventKicked              = "kicked"
)

type registerPayload struct {
	Name string `json:"name"`
}

type chatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type optionPayload struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type createPollPayload struct {
	Text      string          `json:"text"`
	Options   []optionPayload `json:"options"`
	TimeLimit int             `json:"timeLimit"`
}

type submitAnswerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	Name       string `json:"name"`
}

type timeoutPayload struct {
	QuestionID string `json:"questionId"`
}

type kickPayload struct {
	Name string `json:"name"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type registrationSuccessPayload struct {
	StudentID uuid.UUID `json:"studentId"`
}

type pollStartedPayload struct {
	Poll       *models.Poll `json:"poll"`
	ServerTime int64        `json:"serverTime"` // unix ms
}

type pollStatusPayload struct {
	CanAskNew bool `json:"canAskNew"`
}

type chatMessagePayload struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // unix ms
}
