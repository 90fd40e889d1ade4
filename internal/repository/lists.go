package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// ListsRepository persists user-curated movie lists.
type ListsRepository struct {
	pool *pgxpool.Pool
}

const listColumns = `id, user_id::text, name, is_private, created_at`

// Create inserts a new list owned by userID.
func (r *ListsRepository) Create(ctx context.Context, userID, name string, isPrivate bool) (domain.List, error) {
	query := `INSERT INTO lists (user_id, name, is_private) VALUES ($1,$2,$3) RETURNING ` + listColumns
	list, err := scanList(r.pool.QueryRow(ctx, query, userID, name, isPrivate))
	if err != nil {
		return domain.List{}, translate(err)
	}
	return list, nil
}

// GetByID fetches a list by its identifier.
func (r *ListsRepository) GetByID(ctx context.Context, id int64) (domain.List, error) {
	list, err := scanList(r.pool.QueryRow(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, id))
	if err != nil {
		return domain.List{}, translate(err)
	}
	return list, nil
}

// AddMovie appends a movie to a list. A movie already in the list fails
// with ErrConflict and an unknown movie with ErrMissingReference.
func (r *ListsRepository) AddMovie(ctx context.Context, listID, movieID int64) (domain.ListMovie, error) {
	const query = `
        INSERT INTO list_movies (list_id, movie_id)
        VALUES ($1,$2)
        RETURNING list_id, movie_id, added_at
    `
	var lm domain.ListMovie
	if err := r.pool.QueryRow(ctx, query, listID, movieID).Scan(&lm.ListID, &lm.MovieID, &lm.AddedAt); err != nil {
		return domain.ListMovie{}, translate(err)
	}
	lm.AddedAt = lm.AddedAt.UTC()
	return lm, nil
}

// ListForUser returns every list owned by userID with its movies nested.
func (r *ListsRepository) ListForUser(ctx context.Context, userID string) ([]domain.ListWithMovies, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, is_private
        FROM lists
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	lists, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ListWithMovies, error) {
		var l domain.ListWithMovies
		err := row.Scan(&l.ID, &l.Name, &l.IsPrivate)
		l.Movies = []domain.ListMovieSummary{}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan lists: %w", err)
	}
	if len(lists) == 0 {
		return []domain.ListWithMovies{}, nil
	}

	ids := make([]int64, len(lists))
	index := make(map[int64]int, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
		index[l.ID] = i
	}

	movieRows, err := r.pool.Query(ctx, `
        SELECT lm.list_id, m.id, m.title, m.poster_url
        FROM list_movies lm
        JOIN movies m ON m.id = lm.movie_id
        WHERE lm.list_id = ANY($1)
        ORDER BY lm.added_at, m.id
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("list list movies: %w", err)
	}
	defer movieRows.Close()

	for movieRows.Next() {
		var (
			listID  int64
			summary domain.ListMovieSummary
		)
		if err := movieRows.Scan(&listID, &summary.MovieID, &summary.Title, &summary.PosterURL); err != nil {
			return nil, err
		}
		if i, ok := index[listID]; ok {
			lists[i].Movies = append(lists[i].Movies, summary)
		}
	}
	if err := movieRows.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

func scanList(row pgx.Row) (domain.List, error) {
	var list domain.List
	if err := row.Scan(&list.ID, &list.UserID, &list.Name, &list.IsPrivate, &list.CreatedAt); err != nil {
		return domain.List{}, err
	}
	list.CreatedAt = list.CreatedAt.UTC()
	return list, nil
}
