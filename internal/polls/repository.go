package polls

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrNotFound is returned when a poll id does not resolve.
var ErrNotFound = errors.New("poll not found")

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a poll and its options in one transaction. Option and poll
// ids are filled in on return.
func (r *Repository) Create(ctx context.Context, p *models.Poll) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const pollQuery = `INSERT INTO polls (question, time_limit) VALUES ($1, $2) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, pollQuery, p.Question, p.TimeLimit).Scan(&p.ID, &p.CreatedAt); err != nil {
		return err
	}

	const optQuery = `INSERT INTO poll_options (poll_id, text, is_correct, position) VALUES ($1, $2, $3, $4) RETURNING id`
	for i := range p.Options {
		opt := &p.Options[i]
		opt.PollID = p.ID
		opt.Position = i
		if err := tx.QueryRow(ctx, optQuery, p.ID, opt.Text, opt.IsCorrect, i).Scan(&opt.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns a poll with its options, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	const query = `SELECT id, question, time_limit, created_at FROM polls WHERE id = $1`
	var p models.Poll
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Question, &p.TimeLimit, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Options, err = r.optionsFor(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// Latest returns the most recently created poll, or nil when none exists.
func (r *Repository) Latest(ctx context.Context) (*models.Poll, error) {
	const query = `SELECT id, question, time_limit, created_at FROM polls ORDER BY created_at DESC LIMIT 1`
	var p models.Poll
	err := r.pool.QueryRow(ctx, query).Scan(&p.ID, &p.Question, &p.TimeLimit, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Options, err = r.optionsFor(ctx, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRecent returns polls newest-first with options. limit <= 0 means all.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*models.Poll, error) {
	query := `SELECT id, question, time_limit, created_at FROM polls ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Poll
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.TimeLimit, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if p.Options, err = r.optionsFor(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) optionsFor(ctx context.Context, pollID uuid.UUID) ([]models.Option, error) {
	const query = `SELECT id, poll_id, text, is_correct, position FROM poll_options WHERE poll_id = $1 ORDER BY position`
	rows, err := r.pool.Query(ctx, query, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []models.Option
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}
