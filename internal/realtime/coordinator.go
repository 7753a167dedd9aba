package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/answers"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/students"
)

// PollStore persists polls.
type PollStore interface {
	Create(ctx context.Context, p *models.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	Latest(ctx context.Context) (*models.Poll, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Poll, error)
}

// AnswerStore persists poll answers. Create returns answers.ErrDuplicate when
// the (student, poll) pair already has one.
type AnswerStore interface {
	Create(ctx context.Context, a *models.Answer) error
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*models.Answer, error)
	Exists(ctx context.Context, studentID, pollID uuid.UUID) (bool, error)
}

// StudentStore persists students. Lookups return students.ErrNotFound on miss.
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetByName(ctx context.Context, name string) (*models.Student, error)
	GetBySocket(ctx context.Context, socketID string) (*models.Student, error)
	Rebind(ctx context.Context, id uuid.UUID, socketID string) error
	UpdateSocket(ctx context.Context, id uuid.UUID, socketID string) error
	DeleteBySocket(ctx context.Context, socketID string) error
	MarkKicked(ctx context.Context, name string) (*models.Student, error)
	ActiveNames(ctx context.Context) ([]string, error)
}

// MessageStore persists chat messages.
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	ListAll(ctx context.Context) ([]*models.Message, error)
}

// Broadcaster fans events out to connected clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
	SendTo(connID, event string, payload interface{})
	Disconnect(connID string)
}

// Coordinator is the event state machine of the classroom. It validates and
// authorizes inbound events, mutates the store and the session registry, and
// emits outbound events through the Broadcaster. Rejections go to the
// originating connection only; nothing here is fatal to the process.
type Coordinator struct {
	polls        PollStore
	answers      AnswerStore
	students     StudentStore
	messages     MessageStore
	registry     *SessionRegistry
	hub          Broadcaster
	logger       *zap.Logger
	teacherName  string
	historyLimit int
	now          func() time.Time
}

// NewCoordinator creates a coordinator.
func NewCoordinator(
	pollStore PollStore,
	answerStore AnswerStore,
	studentStore StudentStore,
	messageStore MessageStore,
	registry *SessionRegistry,
	hub Broadcaster,
	teacherName string,
	historyLimit int,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		polls:        pollStore,
		answers:      answerStore,
		students:     studentStore,
		messages:     messageStore,
		registry:     registry,
		hub:          hub,
		logger:       logger,
		teacherName:  teacherName,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// HandleEvent dispatches one inbound event. Unknown events are ignored.
func (co *Coordinator) HandleEvent(ctx context.Context, connID, event string, data json.RawMessage) {
	switch event {
	case EventRegisterStudent:
		var p registerPayload
		if json.Unmarshal(data, &p) == nil {
			co.register(ctx, connID, p.Name)
		}
	case EventRequestParticipants:
		co.requestParticipants(ctx, connID)
	case EventChatMessage:
		var p chatPayload
		if json.Unmarshal(data, &p) == nil {
			co.chatMessage(ctx, connID, p.Sender, p.Text)
		}
	case EventGetAllMessages:
		co.allMessages(ctx, connID)
	case EventCreatePoll:
		var p createPollPayload
		if json.Unmarshal(data, &p) == nil {
			co.createPoll(ctx, connID, p)
		}
	case EventSubmitAnswer:
		var p submitAnswerPayload
		if json.Unmarshal(data, &p) == nil {
			co.submitAnswer(ctx, connID, p)
		}
	case EventRequestPollState:
		co.requestPollState(ctx, connID)
	case EventTimeout:
		var p timeoutPayload
		if json.Unmarshal(data, &p) == nil {
			co.timeout(ctx, p.QuestionID)
		}
	case EventGetPollHistory:
		co.pollHistory(ctx, connID)
	case EventKickStudent:
		var p kickPayload
		if json.Unmarshal(data, &p) == nil {
			co.kickStudent(ctx, p.Name)
		}
	default:
		co.logger.Debug("ignoring unknown event", zap.String("event", event))
	}
}

// HandleDisconnect removes the student record and registry entry for a
// closing connection and refreshes the participant list for everyone.
func (co *Coordinator) HandleDisconnect(ctx context.Context, connID string) {
	name, ok := co.registry.Name(connID)
	if !ok {
		name = "unknown"
	}
	if err := co.students.DeleteBySocket(ctx, connID); err != nil {
		co.logger.Error("disconnect cleanup", zap.String("conn_id", connID), zap.Error(err))
	}
	co.registry.Unbind(connID)
	co.logger.Info("client disconnected", zap.String("name", name), zap.String("conn_id", connID))
	co.broadcastParticipants(ctx)
}

// register binds a display name to a connection. Old bindings for both the
// name and the connection are cleared first so one name never accumulates
// duplicate student rows across reconnects.
func (co *Coordinator) register(ctx context.Context, connID, name string) {
	if strings.TrimSpace(name) == "" {
		co.hub.SendTo(connID, EventRegistrationError, errorPayload{Message: "Name cannot be empty"})
		return
	}

	// Migrate any stale connection previously bound to this name.
	for _, old := range co.registry.Connections(name) {
		if old == connID {
			continue
		}
		co.registry.Unbind(old)
		if err := co.students.DeleteBySocket(ctx, old); err != nil {
			co.logger.Error("purge stale binding", zap.String("conn_id", old), zap.Error(err))
		}
	}
	// Clear any record left on this connection by a prior session, before the
	// name match below.
	if err := co.students.DeleteBySocket(ctx, connID); err != nil {
		co.logger.Error("purge stale record", zap.String("conn_id", connID), zap.Error(err))
		co.hub.SendTo(connID, EventRegistrationError, errorPayload{Message: "Registration failed"})
		return
	}

	student, err := co.students.GetByName(ctx, name)
	switch {
	case err == nil:
		if err := co.students.Rebind(ctx, student.ID, connID); err != nil {
			co.logger.Error("rebind student", zap.String("name", name), zap.Error(err))
			co.hub.SendTo(connID, EventRegistrationError, errorPayload{Message: "Registration failed"})
			return
		}
		student.SocketID = connID
		student.IsKicked = false
	case errors.Is(err, students.ErrNotFound):
		student = &models.Student{Name: name, SocketID: connID}
		if err := co.students.Create(ctx, student); err != nil {
			co.logger.Error("create student", zap.String("name", name), zap.Error(err))
			co.hub.SendTo(connID, EventRegistrationError, errorPayload{Message: "Registration failed"})
			return
		}
	default:
		co.logger.Error("lookup student", zap.String("name", name), zap.Error(err))
		co.hub.SendTo(connID, EventRegistrationError, errorPayload{Message: "Registration failed"})
		return
	}

	co.registry.Bind(connID, name)
	co.logger.Info("student registered", zap.String("name", name), zap.String("conn_id", connID))

	co.hub.SendTo(connID, EventRegistrationSuccess, registrationSuccessPayload{StudentID: student.ID})
	co.broadcastParticipants(ctx)
}

func (co *Coordinator) requestParticipants(ctx context.Context, connID string) {
	names, err := co.students.ActiveNames(ctx)
	if err != nil {
		co.logger.Error("fetch participants", zap.Error(err))
		return
	}
	co.hub.SendTo(connID, EventParticipantsUpdate, names)
}

// chatMessage persists and fans out a chat line. Messages from kicked (or
// unknown) non-teacher senders are dropped without an error event so the
// sender cannot tell they were kicked.
func (co *Coordinator) chatMessage(ctx context.Context, connID, sender, text string) {
	if sender != co.teacherName {
		student, err := co.students.GetByName(ctx, sender)
		if err != nil || student.IsKicked {
			co.logger.Debug("dropping chat from kicked or unknown sender", zap.String("sender", sender))
			return
		}
	}
	msg := &models.Message{Sender: sender, Text: text, SocketID: connID}
	if err := co.messages.Create(ctx, msg); err != nil {
		co.logger.Error("persist message", zap.String("sender", sender), zap.Error(err))
		return
	}
	co.hub.Broadcast(EventChatMessage, chatMessagePayload{
		Sender:    msg.Sender,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt.UnixMilli(),
	})
}

func (co *Coordinator) allMessages(ctx context.Context, connID string) {
	msgs, err := co.messages.ListAll(ctx)
	if err != nil {
		co.logger.Error("fetch messages", zap.Error(err))
		return
	}
	co.hub.SendTo(connID, EventChatMessages, msgs)
}

// createPoll validates and publishes a new poll. A previous poll blocks the
// new one until its timer expired, nobody is connected, or everyone answered.
func (co *Coordinator) createPoll(ctx context.Context, connID string, p createPollPayload) {
	if strings.TrimSpace(p.Text) == "" || len(p.Options) < 2 {
		co.hub.SendTo(connID, EventPollError, errorPayload{Message: "Invalid poll data"})
		return
	}

	last, err := co.polls.Latest(ctx)
	if err != nil {
		co.logger.Error("fetch latest poll", zap.Error(err))
		co.hub.SendTo(connID, EventPollError, errorPayload{Message: "Failed to create poll"})
		return
	}
	if last != nil {
		responses, err := co.answers.ListByPoll(ctx, last.ID)
		if err != nil {
			co.logger.Error("fetch responses", zap.Error(err))
			co.hub.SendTo(connID, EventPollError, errorPayload{Message: "Failed to create poll"})
			return
		}
		connected := co.registry.Count()
		if !polls.CanStartNew(last, len(responses), connected, co.now()) {
			co.hub.SendTo(connID, EventPollError, errorPayload{
				Message: fmt.Sprintf("Please wait. %d student(s) still answering.", connected-len(responses)),
			})
			return
		}
	}

	timeLimit := p.TimeLimit
	if timeLimit <= 0 {
		timeLimit = 60
	}
	poll := &models.Poll{Question: p.Text, TimeLimit: timeLimit}
	for _, o := range p.Options {
		poll.Options = append(poll.Options, models.Option{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	if err := co.polls.Create(ctx, poll); err != nil {
		co.logger.Error("create poll", zap.Error(err))
		co.hub.SendTo(connID, EventPollError, errorPayload{Message: "Failed to create poll"})
		return
	}
	co.logger.Info("poll created", zap.String("poll_id", poll.ID.String()), zap.String("question", poll.Question))

	// Clients must see the new question before being told they cannot start
	// another.
	co.hub.Broadcast(EventPollStarted, pollStartedPayload{Poll: poll, ServerTime: co.now().UnixMilli()})
	co.hub.Broadcast(EventPollStatus, pollStatusPayload{CanAskNew: false})
}

// submitAnswer records one student's answer. The student resolves primarily
// by connection; a name fallback heals clients whose connection changed
// without a fresh registration.
func (co *Coordinator) submitAnswer(ctx context.Context, connID string, p submitAnswerPayload) {
	student, err := co.students.GetBySocket(ctx, connID)
	if errors.Is(err, students.ErrNotFound) && p.Name != "" {
		student, err = co.recoverStudent(ctx, connID, p.Name)
	}
	if err != nil || student == nil {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Student not found"})
		return
	}

	pollID, parseErr := uuid.Parse(p.QuestionID)
	if parseErr != nil {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Poll not found"})
		return
	}
	poll, err := co.polls.GetByID(ctx, pollID)
	if errors.Is(err, polls.ErrNotFound) {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Poll not found"})
		return
	}
	if err != nil {
		co.logger.Error("fetch poll", zap.Error(err))
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Failed to submit answer"})
		return
	}

	now := co.now()
	if polls.Remaining(poll, now) <= 0 {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Poll has ended"})
		return
	}

	exists, err := co.answers.Exists(ctx, student.ID, poll.ID)
	if err != nil {
		co.logger.Error("check existing answer", zap.Error(err))
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Failed to submit answer"})
		return
	}
	if exists {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Already submitted"})
		return
	}

	optionID, parseErr := uuid.Parse(p.Answer)
	if parseErr != nil {
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Invalid answer"})
		return
	}
	isCorrect := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			isCorrect = opt.IsCorrect
			break
		}
	}

	answer := &models.Answer{StudentID: student.ID, PollID: poll.ID, OptionID: optionID, IsCorrect: isCorrect}
	err = co.answers.Create(ctx, answer)
	if errors.Is(err, answers.ErrDuplicate) {
		// Lost the race with a concurrent submission; the store's uniqueness
		// constraint is the final arbiter.
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Already submitted"})
		return
	}
	if err != nil {
		co.logger.Error("persist answer", zap.Error(err))
		co.hub.SendTo(connID, EventAnswerError, errorPayload{Message: "Failed to submit answer"})
		return
	}
	co.logger.Info("answer submitted", zap.String("student", student.Name), zap.String("poll_id", poll.ID.String()))

	co.broadcastResults(ctx, poll)
}

// recoverStudent re-resolves a student by name and re-binds their connection,
// creating the record if it vanished entirely.
func (co *Coordinator) recoverStudent(ctx context.Context, connID, name string) (*models.Student, error) {
	student, err := co.students.GetByName(ctx, name)
	if err == nil {
		if err := co.students.UpdateSocket(ctx, student.ID, connID); err != nil {
			return nil, err
		}
		student.SocketID = connID
		co.registry.Bind(connID, name)
		return student, nil
	}
	if !errors.Is(err, students.ErrNotFound) {
		return nil, err
	}
	student = &models.Student{Name: name, SocketID: connID}
	if err := co.students.Create(ctx, student); err != nil {
		return nil, err
	}
	co.registry.Bind(connID, name)
	return student, nil
}

func (co *Coordinator) requestPollState(ctx context.Context, connID string) {
	state, err := co.stateFor(ctx, connID)
	if err != nil {
		co.logger.Error("build poll state", zap.Error(err))
		co.hub.SendTo(connID, EventPollError, errorPayload{Message: "Failed to fetch poll state"})
		return
	}
	co.hub.SendTo(connID, EventPollState, state)
}

// stateFor bundles everything a reconnecting client needs to reconstruct its
// exact view of the current poll without replaying events.
func (co *Coordinator) stateFor(ctx context.Context, connID string) (*models.PollState, error) {
	poll, err := co.polls.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return &models.PollState{}, nil
	}

	responses, err := co.answers.ListByPoll(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	now := co.now()
	results := polls.Aggregate(poll, responses)
	remaining := polls.Remaining(poll, now)
	isActive := remaining > 0
	canAskNew := polls.CanStartNew(poll, len(responses), co.registry.Count(), now)
	serverTime := now.UnixMilli()

	hasResponded := false
	if student, err := co.students.GetBySocket(ctx, connID); err == nil {
		if hasResponded, err = co.answers.Exists(ctx, student.ID, poll.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, students.ErrNotFound) {
		return nil, err
	}

	return &models.PollState{
		Poll:             poll,
		Results:          &results,
		RemainingSeconds: &remaining,
		IsActive:         &isActive,
		CanAskNew:        &canAskNew,
		ServerTime:       &serverTime,
		HasResponded:     &hasResponded,
	}, nil
}

// timeout re-broadcasts results and status when a client's local countdown
// reaches zero, so laggard dashboards refresh even with no final submission.
func (co *Coordinator) timeout(ctx context.Context, questionID string) {
	pollID, err := uuid.Parse(questionID)
	if err != nil {
		return
	}
	poll, err := co.polls.GetByID(ctx, pollID)
	if err != nil {
		if !errors.Is(err, polls.ErrNotFound) {
			co.logger.Error("fetch poll for timeout", zap.Error(err))
		}
		return
	}
	co.broadcastResults(ctx, poll)
}

func (co *Coordinator) pollHistory(ctx context.Context, connID string) {
	ps, err := co.polls.ListRecent(ctx, co.historyLimit)
	if err != nil {
		co.logger.Error("fetch poll history", zap.Error(err))
		co.hub.SendTo(connID, EventHistoryError, errorPayload{Message: "Failed to fetch history"})
		return
	}
	answersByPoll := make(map[string][]*models.Answer, len(ps))
	for _, p := range ps {
		as, err := co.answers.ListByPoll(ctx, p.ID)
		if err != nil {
			co.logger.Error("fetch poll history", zap.Error(err))
			co.hub.SendTo(connID, EventHistoryError, errorPayload{Message: "Failed to fetch history"})
			return
		}
		answersByPoll[p.ID.String()] = as
	}
	co.hub.SendTo(connID, EventPollHistory, polls.BuildHistory(ps, answersByPoll))
}

// kickStudent flags the student, force-disconnects any live session under
// that name, and refreshes the roster for everyone.
func (co *Coordinator) kickStudent(ctx context.Context, name string) {
	_, err := co.students.MarkKicked(ctx, name)
	if errors.Is(err, students.ErrNotFound) {
		co.logger.Warn("kick target not found", zap.String("name", name))
		return
	}
	if err != nil {
		co.logger.Error("mark kicked", zap.String("name", name), zap.Error(err))
		return
	}
	co.logger.Info("student kicked", zap.String("name", name))

	for _, conn := range co.registry.Connections(name) {
		co.hub.SendTo(conn, EventKicked, struct{}{})
		co.registry.Unbind(conn)
		co.hub.Disconnect(conn)
	}
	co.broadcastParticipants(ctx)
}

func (co *Coordinator) broadcastParticipants(ctx context.Context) {
	names, err := co.students.ActiveNames(ctx)
	if err != nil {
		co.logger.Error("fetch participants", zap.Error(err))
		return
	}
	co.hub.Broadcast(EventParticipantsUpdate, names)
}

func (co *Coordinator) broadcastResults(ctx context.Context, poll *models.Poll) {
	responses, err := co.answers.ListByPoll(ctx, poll.ID)
	if err != nil {
		co.logger.Error("fetch responses", zap.Error(err))
		return
	}
	results := polls.Aggregate(poll, responses)
	canAskNew := polls.CanStartNew(poll, len(responses), co.registry.Count(), co.now())
	co.hub.Broadcast(EventPollResults, results)
	co.hub.Broadcast(EventPollStatus, pollStatusPayload{CanAskNew: canAskNew})
}
