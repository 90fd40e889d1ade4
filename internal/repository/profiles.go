package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// ProfilesRepository persists public user profiles.
type ProfilesRepository struct {
	pool *pgxpool.Pool
}

const profileColumns = `user_id::text, username, created_at, updated_at`

// Get fetches a profile by user id.
func (r *ProfilesRepository) Get(ctx context.Context, userID string) (domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, translate(err)
	}
	return profile, nil
}

// Username returns the profile username, or "" when the user has no profile.
func (r *ProfilesRepository) Username(ctx context.Context, userID string) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `SELECT username FROM user_profiles WHERE user_id = $1`, userID).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

// Upsert creates or renames a profile. A username owned by another user
// fails with ErrConflict.
func (r *ProfilesRepository) Upsert(ctx context.Context, userID, username string) (domain.Profile, error) {
	const query = `
        INSERT INTO user_profiles (user_id, username)
        VALUES ($1,$2)
        ON CONFLICT (user_id)
        DO UPDATE SET username = EXCLUDED.username, updated_at = now()
        RETURNING ` + profileColumns
	profile, err := scanProfile(r.pool.QueryRow(ctx, query, userID, username))
	if err != nil {
		return domain.Profile{}, translate(err)
	}
	return profile, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(&profile.UserID, &profile.Username, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return domain.Profile{}, err
	}
	profile.CreatedAt = profile.CreatedAt.UTC()
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return profile, nil
}
