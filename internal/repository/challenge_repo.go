package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studystreak-backend/internal/models"
)

type ChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewChallengeRepo(pool *pgxpool.Pool) *ChallengeRepo {
	return &ChallengeRepo{pool: pool}
}

const challengeColumns = `id, group_id, title, description, scoring_rule, target, start_date, end_date, created_by, created_at`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(&c.ID, &c.GroupID, &c.Title, &c.Description, &c.ScoringRule, &c.Target,
		&c.StartDate, &c.EndDate, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO challenges (group_id, title, description, scoring_rule, target, start_date, end_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		c.GroupID, c.Title, c.Description, c.ScoringRule, c.Target, c.StartDate, c.EndDate, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *ChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	return scanChallenge(r.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
}

func (r *ChallengeRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE group_id = $1 ORDER BY start_date DESC, created_at DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := make([]models.Challenge, 0)
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}
