package students

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrNotFound is returned when no student matches the lookup.
var ErrNotFound = errors.New("student not found")

// Repository handles student persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a students repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a student bound to a connection.
func (r *Repository) Create(ctx context.Context, s *models.Student) error {
	const query = `INSERT INTO students (name, socket_id, is_kicked) VALUES ($1, $2, FALSE)
		RETURNING id, joined_at`
	return r.pool.QueryRow(ctx, query, s.Name, s.SocketID).Scan(&s.ID, &s.JoinedAt)
}

// GetByName returns the student with the given display name, or ErrNotFound.
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Student, error) {
	return r.getOne(ctx, `SELECT id, name, socket_id, is_kicked, joined_at FROM students WHERE name = $1`, name)
}

// GetBySocket returns the student bound to the connection, or ErrNotFound.
func (r *Repository) GetBySocket(ctx context.Context, socketID string) (*models.Student, error) {
	return r.getOne(ctx, `SELECT id, name, socket_id, is_kicked, joined_at FROM students WHERE socket_id = $1`, socketID)
}

// Rebind points an existing student at a new connection and clears the
// kicked flag, the reconnect path of registration.
func (r *Repository) Rebind(ctx context.Context, id uuid.UUID, socketID string) error {
	const query = `UPDATE students SET socket_id = $2, is_kicked = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, socketID)
	return err
}

// UpdateSocket repoints a student's connection without touching the kicked
// flag, used by the answer-submission recovery path.
func (r *Repository) UpdateSocket(ctx context.Context, id uuid.UUID, socketID string) error {
	const query = `UPDATE students SET socket_id = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, socketID)
	return err
}

// DeleteBySocket removes any student bound to the connection.
func (r *Repository) DeleteBySocket(ctx context.Context, socketID string) error {
	const query = `DELETE FROM students WHERE socket_id = $1`
	_, err := r.pool.Exec(ctx, query, socketID)
	return err
}

// MarkKicked flags the named student as kicked and returns the updated row,
// or ErrNotFound.
func (r *Repository) MarkKicked(ctx context.Context, name string) (*models.Student, error) {
	const query = `UPDATE students SET is_kicked = TRUE WHERE name = $1
		RETURNING id, name, socket_id, is_kicked, joined_at`
	return r.scanOne(r.pool.QueryRow(ctx, query, name))
}

// ActiveNames returns display names of all non-kicked students, oldest first.
func (r *Repository) ActiveNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM students WHERE is_kicked = FALSE ORDER BY joined_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *Repository) getOne(ctx context.Context, query string, arg interface{}) (*models.Student, error) {
	return r.scanOne(r.pool.QueryRow(ctx, query, arg))
}

func (r *Repository) scanOne(row pgx.Row) (*models.Student, error) {
	var s models.Student
	var socketID *string
	err := row.Scan(&s.ID, &s.Name, &socketID, &s.IsKicked, &s.JoinedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if socketID != nil {
		s.SocketID = *socketID
	}
	return &s, nil
}
