package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studystreak-backend/internal/models"
)

type AccomplishmentRepo struct {
	pool *pgxpool.Pool
}

func NewAccomplishmentRepo(pool *pgxpool.Pool) *AccomplishmentRepo {
	return &AccomplishmentRepo{pool: pool}
}

func (r *AccomplishmentRepo) Create(ctx context.Context, a *models.Accomplishment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accomplishments (user_id, group_id, title, description, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		a.UserID, a.GroupID, a.Title, a.Description, a.Category,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListByGroup returns the newest accomplishments of a group.
func (r *AccomplishmentRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Accomplishment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.user_id, a.group_id, u.username, a.title, a.description, a.category, a.created_at
		FROM accomplishments a
		JOIN users u ON u.id = a.user_id
		WHERE a.group_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Accomplishment, 0)
	for rows.Next() {
		var a models.Accomplishment
		if err := rows.Scan(&a.ID, &a.UserID, &a.GroupID, &a.Username, &a.Title, &a.Description, &a.Category, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
