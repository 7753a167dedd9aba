package polls

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/pkg/response"
)

// PollLister lists persisted polls newest-first.
type PollLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.Poll, error)
}

// AnswerLister lists answers for one poll.
type AnswerLister interface {
	ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*models.Answer, error)
}

// Handler serves the poll history REST endpoint.
type Handler struct {
	polls   PollLister
	answers AnswerLister
}

// NewHandler creates a polls handler.
func NewHandler(polls PollLister, answers AnswerLister) *Handler {
	return &Handler{polls: polls, answers: answers}
}

// History handles GET /api/polls/history: every poll newest-first with
// per-option counts and percentages.
func (h *Handler) History(c *gin.Context) {
	ctx := c.Request.Context()
	ps, err := h.polls.ListRecent(ctx, 0)
	if err != nil {
		response.Internal(c, "failed to fetch poll history")
		return
	}
	answersByPoll := make(map[string][]*models.Answer, len(ps))
	for _, p := range ps {
		as, err := h.answers.ListByPoll(ctx, p.ID)
		if err != nil {
			response.Internal(c, "failed to fetch poll history")
			return
		}
		answersByPoll[p.ID.String()] = as
	}
	response.OK(c, BuildHistory(ps, answersByPoll))
}
