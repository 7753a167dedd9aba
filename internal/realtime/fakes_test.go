package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/answers"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/students"
)

// In-memory store fakes mirroring the repository contracts, including the
// sentinel errors the coordinator switches on.

type fakePolls struct {
	items []*models.Poll
	now   func() time.Time
}

func (f *fakePolls) Create(_ context.Context, p *models.Poll) error {
	p.ID = uuid.New()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = f.now()
	}
	for i := range p.Options {
		p.Options[i].ID = uuid.New()
		p.Options[i].PollID = p.ID
		p.Options[i].Position = i
	}
	f.items = append(f.items, p)
	return nil
}

func (f *fakePolls) GetByID(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, polls.ErrNotFound
}

func (f *fakePolls) Latest(_ context.Context) (*models.Poll, error) {
	if len(f.items) == 0 {
		return nil, nil
	}
	return f.items[len(f.items)-1], nil
}

func (f *fakePolls) ListRecent(_ context.Context, limit int) ([]*models.Poll, error) {
	var out []*models.Poll
	for i := len(f.items) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, f.items[i])
	}
	return out, nil
}

type fakeAnswers struct {
	items     []*models.Answer
	forceDup  bool // simulate losing the insert race to the unique constraint
}

func (f *fakeAnswers) Create(_ context.Context, a *models.Answer) error {
	if f.forceDup {
		return answers.ErrDuplicate
	}
	for _, e := range f.items {
		if e.StudentID == a.StudentID && e.PollID == a.PollID {
			return answers.ErrDuplicate
		}
	}
	a.ID = uuid.New()
	a.SubmittedAt = time.Now()
	f.items = append(f.items, a)
	return nil
}

func (f *fakeAnswers) ListByPoll(_ context.Context, pollID uuid.UUID) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range f.items {
		if a.PollID == pollID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnswers) Exists(_ context.Context, studentID, pollID uuid.UUID) (bool, error) {
	for _, a := range f.items {
		if a.StudentID == studentID && a.PollID == pollID {
			return true, nil
		}
	}
	return false, nil
}

type fakeStudents struct {
	items []*models.Student
	seq   int
}

func (f *fakeStudents) Create(_ context.Context, s *models.Student) error {
	s.ID = uuid.New()
	f.seq++
	s.JoinedAt = time.Unix(int64(f.seq), 0)
	f.items = append(f.items, s)
	return nil
}

func (f *fakeStudents) GetByName(_ context.Context, name string) (*models.Student, error) {
	for _, s := range f.items {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, students.ErrNotFound
}

func (f *fakeStudents) GetBySocket(_ context.Context, socketID string) (*models.Student, error) {
	for _, s := range f.items {
		if s.SocketID == socketID {
			return s, nil
		}
	}
	return nil, students.ErrNotFound
}

func (f *fakeStudents) Rebind(_ context.Context, id uuid.UUID, socketID string) error {
	for _, s := range f.items {
		if s.ID == id {
			s.SocketID = socketID
			s.IsKicked = false
		}
	}
	return nil
}

func (f *fakeStudents) UpdateSocket(_ context.Context, id uuid.UUID, socketID string) error {
	for _, s := range f.items {
		if s.ID == id {
			s.SocketID = socketID
		}
	}
	return nil
}

func (f *fakeStudents) DeleteBySocket(_ context.Context, socketID string) error {
	kept := f.items[:0]
	for _, s := range f.items {
		if s.SocketID != socketID {
			kept = append(kept, s)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeStudents) MarkKicked(_ context.Context, name string) (*models.Student, error) {
	for _, s := range f.items {
		if s.Name == name {
			s.IsKicked = true
			return s, nil
		}
	}
	return nil, students.ErrNotFound
}

func (f *fakeStudents) ActiveNames(_ context.Context) ([]string, error) {
	names := []string{}
	for _, s := range f.items {
		if !s.IsKicked {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

type fakeMessages struct {
	items []*models.Message
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	f.items = append(f.items, m)
	return nil
}

func (f *fakeMessages) ListAll(_ context.Context) ([]*models.Message, error) {
	return f.items, nil
}

// fakeHub records every emission so tests can assert recipients and ordering.
type sentEvent struct {
	To      string // "*" for broadcasts
	Event   string
	Payload interface{}
}

type fakeHub struct {
	mu           sync.Mutex
	events       []sentEvent
	disconnected []string
}

func (f *fakeHub) Broadcast(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{To: "*", Event: event, Payload: payload})
}

func (f *fakeHub) SendTo(connID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{To: connID, Event: event, Payload: payload})
}

func (f *fakeHub) Disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, connID)
}

func (f *fakeHub) eventsNamed(event string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeHub) lastNamed(event string) (sentEvent, bool) {
	evs := f.eventsNamed(event)
	if len(evs) == 0 {
		return sentEvent{}, false
	}
	return evs[len(evs)-1], true
}

func (f *fakeHub) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
	f.disconnected = nil
}
