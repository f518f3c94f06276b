package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studystreak-backend/internal/database"
	"studystreak-backend/internal/models"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

// Create inserts the group and its creator's membership together.
func (r *GroupRepo) Create(ctx context.Context, g *models.Group) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO groups (name, description, created_by)
			VALUES ($1, $2, $3)
			RETURNING id, created_at`,
			g.Name, g.Description, g.CreatedBy,
		).Scan(&g.ID, &g.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, "INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)", g.ID, g.CreatedBy)
		if err != nil {
			return err
		}
		g.MemberCount = 1
		return nil
	})
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g := &models.Group{}
	err := r.pool.QueryRow(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at,
			(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
		FROM groups g WHERE g.id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.MemberCount)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GroupRepo) List(ctx context.Context) ([]models.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at, COUNT(m.user_id)
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		GROUP BY g.id
		ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.MemberCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListForUser returns the groups a user belongs to.
func (r *GroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMembership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at,
			(SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id),
			m.joined_at
		FROM group_members m
		JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]models.GroupMembership, 0)
	for rows.Next() {
		var gm models.GroupMembership
		if err := rows.Scan(&gm.ID, &gm.Name, &gm.Description, &gm.CreatedBy, &gm.CreatedAt, &gm.MemberCount, &gm.JoinedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, gm)
	}
	return memberships, rows.Err()
}

// AddMember returns false when the user is already a member.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING`, groupID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveMember returns false when the user was not a member.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM group_members WHERE group_id = $1 AND user_id = $2", groupID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)",
		groupID, userID,
	).Scan(&exists)
	return exists, err
}

// Members lists members with the user fields ranking needs.
func (r *GroupRepo) Members(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, u.created_at, m.joined_at, COALESCE(u.preferences->>'timezone', '')
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.UserCreatedAt, &m.JoinedAt, &m.Timezone); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *GroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM groups WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
