package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"studystreak-backend/internal/models"
)

type CalendarCredentialRepo struct {
	pool *pgxpool.Pool
}

func NewCalendarCredentialRepo(pool *pgxpool.Pool) *CalendarCredentialRepo {
	return &CalendarCredentialRepo{pool: pool}
}

// FindCalendarCredential returns nil, nil when the user has none.
func (r *CalendarCredentialRepo) FindCalendarCredential(ctx context.Context, userID uuid.UUID) (*models.CalendarCredential, error) {
	c := &models.CalendarCredential{}
	var expiry pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, provider, access_token, refresh_token, token_type, expiry, updated_at
		FROM calendar_credentials WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &c.Provider, &c.AccessToken, &c.RefreshToken, &c.TokenType, &expiry, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		c.Expiry = expiry.Time
	}
	return c, nil
}

func (r *CalendarCredentialRepo) UpsertCalendarCredential(ctx context.Context, c *models.CalendarCredential) error {
	expiry := pgtype.Timestamptz{Time: c.Expiry, Valid: !c.Expiry.IsZero()}
	return r.pool.QueryRow(ctx, `
		INSERT INTO calendar_credentials (user_id, provider, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET provider = EXCLUDED.provider,
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN calendar_credentials.refresh_token
				ELSE EXCLUDED.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()
		RETURNING updated_at`,
		c.UserID, c.Provider, c.AccessToken, c.RefreshToken, c.TokenType, expiry,
	).Scan(&c.UpdatedAt)
}

func (r *CalendarCredentialRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM calendar_credentials WHERE user_id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
