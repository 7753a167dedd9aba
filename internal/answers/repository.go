// Package answers persists student poll responses. The (student_id, poll_id)
// uniqueness constraint is the final arbiter of "one answer per student per
// poll"; callers pre-check and treat ErrDuplicate as the same outcome.
package answers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrDuplicate is returned when a student already answered the poll.
var ErrDuplicate = errors.New("answer already submitted")

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// Repository handles answer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an answers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an answer. Returns ErrDuplicate if the student already
// answered this poll.
func (r *Repository) Create(ctx context.Context, a *models.Answer) error {
	const query = `INSERT INTO responses (student_id, poll_id, option_id, is_correct)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_at`
	err := r.pool.QueryRow(ctx, query, a.StudentID, a.PollID, a.OptionID, a.IsCorrect).
		Scan(&a.ID, &a.SubmittedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// ListByPoll returns all answers recorded for a poll.
func (r *Repository) ListByPoll(ctx context.Context, pollID uuid.UUID) ([]*models.Answer, error) {
	const query = `SELECT id, student_id, poll_id, option_id, is_correct, submitted_at
		FROM responses WHERE poll_id = $1`
	rows, err := r.pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.StudentID, &a.PollID, &a.OptionID, &a.IsCorrect, &a.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Exists reports whether the student already answered the poll.
func (r *Repository) Exists(ctx context.Context, studentID, pollID uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM responses WHERE student_id = $1 AND poll_id = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, pollID).Scan(&exists)
	return exists, err
}
