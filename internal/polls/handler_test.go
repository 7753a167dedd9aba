package polls

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

type stubPollLister struct {
	polls []*models.Poll
}

func (s *stubPollLister) ListRecent(_ context.Context, _ int) ([]*models.Poll, error) {
	return s.polls, nil
}

type stubAnswerLister struct {
	byPoll map[string][]*models.Answer
}

func (s *stubAnswerLister) ListByPoll(_ context.Context, pollID uuid.UUID) ([]*models.Answer, error) {
	return s.byPoll[pollID.String()], nil
}

func TestHistoryEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	poll := testPoll(60, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), 2)
	answers := []*models.Answer{answerFor(poll, 0), answerFor(poll, 0), answerFor(poll, 1), answerFor(poll, 1)}

	h := NewHandler(
		&stubPollLister{polls: []*models.Poll{poll}},
		&stubAnswerLister{byPoll: map[string][]*models.Answer{poll.ID.String(): answers}},
	)

	router := gin.New()
	router.GET("/api/polls/history", h.History)

	req := httptest.NewRequest(http.MethodGet, "/api/polls/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Success bool                 `json:"success"`
		Data    []models.HistoryItem `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Error("expected success envelope")
	}
	if len(body.Data) != 1 {
		t.Fatalf("items = %d, want 1", len(body.Data))
	}
	item := body.Data[0]
	if item.Question != poll.Question {
		t.Errorf("question = %q", item.Question)
	}
	if len(item.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(item.Options))
	}
	for _, opt := range item.Options {
		if opt.Count != 2 || opt.Percentage != 50 {
			t.Errorf("option %s: count=%d percentage=%d, want 2/50", opt.ID, opt.Count, opt.Percentage)
		}
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHandler(&stubPollLister{}, &stubAnswerLister{})
	router := gin.New()
	router.GET("/api/polls/history", h.History)

	req := httptest.NewRequest(http.MethodGet, "/api/polls/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
