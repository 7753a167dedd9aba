package polls

import (
	"math"
	"time"

	"github.com/classpulse/backend/internal/models"
)

// Remaining returns the seconds left on a poll's timer at the given instant,
// never negative. Elapsed time is truncated to whole seconds before the
// subtraction, matching the countdown clients display.
func Remaining(p *models.Poll, now time.Time) int {
	elapsed := int(now.Sub(p.CreatedAt).Milliseconds() / 1000)
	if remaining := p.TimeLimit - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// IsActive reports whether the poll's timer is still running.
func IsActive(p *models.Poll, now time.Time) bool {
	return Remaining(p, now) > 0
}

// Aggregate counts answers per option. Every option of the poll appears in
// the result, zero-vote options included, so clients can render the complete
// set. Answers referencing unknown options are ignored.
func Aggregate(p *models.Poll, answers []*models.Answer) models.PollResults {
	results := models.PollResults{Answers: make(map[string]int, len(p.Options))}
	for _, opt := range p.Options {
		results.Answers[opt.ID.String()] = 0
	}
	for _, a := range answers {
		id := a.OptionID.String()
		if _, ok := results.Answers[id]; ok {
			results.Answers[id]++
		}
	}
	return results
}

// Percentage returns count/total as a rounded whole percentage, 0 when total
// is zero.
func Percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// CanStartNew decides whether the teacher may publish a new poll given the
// current one. Any of three conditions suffices: the timer expired, nobody is
// connected to answer, or every connected student has answered. The policy
// favors availability; the teacher is never blocked indefinitely.
func CanStartNew(p *models.Poll, responseCount, connectedCount int, now time.Time) bool {
	return Remaining(p, now) == 0 || connectedCount == 0 || responseCount >= connectedCount
}

// BuildHistory assembles past polls with per-option counts and percentages,
// the shape served by both the history REST endpoint and the socket history
// event.
func BuildHistory(ps []*models.Poll, answersByPoll map[string][]*models.Answer) []models.HistoryItem {
	items := make([]models.HistoryItem, 0, len(ps))
	for _, p := range ps {
		answers := answersByPoll[p.ID.String()]
		results := Aggregate(p, answers)
		total := 0
		for _, c := range results.Answers {
			total += c
		}
		opts := make([]models.HistoryOption, 0, len(p.Options))
		for _, o := range p.Options {
			count := results.Answers[o.ID.String()]
			opts = append(opts, models.HistoryOption{
				ID:         o.ID,
				Text:       o.Text,
				IsCorrect:  o.IsCorrect,
				Count:      count,
				Percentage: Percentage(count, total),
			})
		}
		items = append(items, models.HistoryItem{
			ID:        p.ID,
			Question:  p.Question,
			Options:   opts,
			CreatedAt: p.CreatedAt,
		})
	}
	return items
}
