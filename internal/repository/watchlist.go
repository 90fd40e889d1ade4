package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// WatchlistRepository persists user watchlist membership.
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// Get returns the watchlist entry for (user, movie) or ErrNotFound.
func (r *WatchlistRepository) Get(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, error) {
	const query = `
        SELECT user_id::text, movie_id, added_at
        FROM user_watchlist
        WHERE user_id = $1 AND movie_id = $2
    `
	var entry domain.WatchlistEntry
	err := r.pool.QueryRow(ctx, query, userID, movieID).Scan(&entry.UserID, &entry.MovieID, &entry.AddedAt)
	if err != nil {
		return domain.WatchlistEntry{}, translate(err)
	}
	entry.AddedAt = entry.AddedAt.UTC()
	return entry, nil
}

// Add inserts a watchlist entry. A duplicate fails with ErrConflict.
func (r *WatchlistRepository) Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, error) {
	const query = `
        INSERT INTO user_watchlist (user_id, movie_id)
        VALUES ($1,$2)
        RETURNING user_id::text, movie_id, added_at
    `
	var entry domain.WatchlistEntry
	err := r.pool.QueryRow(ctx, query, userID, movieID).Scan(&entry.UserID, &entry.MovieID, &entry.AddedAt)
	if err != nil {
		return domain.WatchlistEntry{}, translate(err)
	}
	entry.AddedAt = entry.AddedAt.UTC()
	return entry, nil
}

// Remove deletes a watchlist entry.
func (r *WatchlistRepository) Remove(ctx context.Context, userID string, movieID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns the user's saved movies, most recently added first.
func (r *WatchlistRepository) ListForUser(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	query := fmt.Sprintf(`
        SELECT w.added_at, %s
        FROM user_watchlist w
        JOIN movies m ON m.id = w.movie_id
        WHERE w.user_id = $1
        ORDER BY w.added_at DESC, m.id DESC
    `, movieColumns)
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.WatchlistItem, 0)
	for rows.Next() {
		var item domain.WatchlistItem
		if err := rows.Scan(
			&item.AddedAt,
			&item.ID,
			&item.Title,
			&item.ReleaseYear,
			&item.Overview,
			&item.PosterURL,
			&item.IMDbRating,
			&item.MetaScore,
			&item.AvgRating,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.AddedAt = item.AddedAt.UTC()
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	return items, rows.Err()
}
