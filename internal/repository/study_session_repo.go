package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studystreak-backend/internal/models"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

const sessionColumns = `id, user_id, group_id, title, subject, description, location, notes,
	start_time, end_time, duration_minutes, status, completed_at, calendar_event_id, created_at`

func scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := row.Scan(
		&s.ID, &s.UserID, &s.GroupID, &s.Title, &s.Subject, &s.Description, &s.Location, &s.Notes,
		&s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Status, &s.CompletedAt, &s.CalendarEventID, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Completed = s.Status == models.SessionCompleted
	return s, nil
}

func collectSessions(rows pgx.Rows) ([]models.StudySession, error) {
	defer rows.Close()
	sessions := make([]models.StudySession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *StudySessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	query := `
		INSERT INTO study_sessions (user_id, group_id, title, subject, description, location, notes,
			start_time, end_time, duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'scheduled')
		RETURNING id, status, created_at`

	return r.pool.QueryRow(ctx, query,
		s.UserID, s.GroupID, s.Title, s.Subject, s.Description, s.Location, s.Notes,
		s.StartTime, s.EndTime, s.DurationMinutes,
	).Scan(&s.ID, &s.Status, &s.CreatedAt)
}

func (r *StudySessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = $1`, id))
}

// ListByUser returns all of a user's sessions, newest first.
func (r *StudySessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM study_sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListCompletedByUsers returns completed sessions for many users at once.
func (r *StudySessionRepo) ListCompletedByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.StudySession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM study_sessions
		 WHERE user_id = ANY($1) AND status = 'completed'
		 ORDER BY completed_at ASC`, userIDs)
	if err != nil {
		return nil, err
	}
	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID][]models.StudySession, len(userIDs))
	for _, s := range sessions {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}
	return byUser, nil
}

// Complete marks a scheduled session completed. It returns pgx.ErrNoRows
// when the session is not in the scheduled state.
func (r *StudySessionRepo) Complete(ctx context.Context, id uuid.UUID, at time.Time) (*models.StudySession, error) {
	return scanSession(r.pool.QueryRow(ctx, `
		UPDATE study_sessions
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status = 'scheduled'
		RETURNING `+sessionColumns, id, at))
}

// Cancel marks a scheduled session cancelled, with the same contract as Complete.
func (r *StudySessionRepo) Cancel(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	return scanSession(r.pool.QueryRow(ctx, `
		UPDATE study_sessions
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'scheduled'
		RETURNING `+sessionColumns, id))
}

func (r *StudySessionRepo) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	_, err := r.pool.Exec(ctx, "UPDATE study_sessions SET calendar_event_id = $1 WHERE id = $2", eventID, id)
	return err
}

func (r *StudySessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM study_sessions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
