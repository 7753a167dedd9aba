package chat

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// Repository handles chat message persistence. Messages are append-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a message.
func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	const query = `INSERT INTO messages (sender, text, socket_id) VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, m.Sender, m.Text, m.SocketID).Scan(&m.ID, &m.CreatedAt)
}

// ListAll returns every message, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]*models.Message, error) {
	const query = `SELECT id, sender, text, socket_id, created_at FROM messages ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.SocketID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
