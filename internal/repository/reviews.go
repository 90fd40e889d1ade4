package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// DeletedUsername stands in for authors whose profile no longer exists.
const DeletedUsername = "deleted user"

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `
    r.id,
    r.movie_id,
    r.user_id::text,
    r.rating,
    r.comment,
    r.created_at,
    r.updated_at
`

// ReviewCreateParams captures the payload required to insert a review.
type ReviewCreateParams struct {
	MovieID int64
	UserID  string
	Rating  int
	Comment *string
}

// Create inserts a review. A second review by the same user for the same
// movie fails with ErrConflict.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews AS r (movie_id, user_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, params.MovieID, params.UserID, params.Rating, params.Comment))
	if err != nil {
		return domain.Review{}, translate(err)
	}
	return review, nil
}

// Update replaces the rating and comment of a review.
func (r *ReviewsRepository) Update(ctx context.Context, id int64, rating int, comment *string) (domain.Review, error) {
	query := fmt.Sprintf(`
        UPDATE reviews AS r
        SET rating = $2, comment = $3, updated_at = now()
        WHERE r.id = $1
        RETURNING %s
    `, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id, rating, comment))
	if err != nil {
		return domain.Review{}, translate(err)
	}
	return review, nil
}

// Delete removes a review by id.
func (r *ReviewsRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id int64) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews r WHERE r.id = $1`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Review{}, translate(err)
	}
	return review, nil
}

// GetByUserAndMovie retrieves the review a user wrote for a movie.
func (r *ReviewsRepository) GetByUserAndMovie(ctx context.Context, userID string, movieID int64) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews r WHERE r.user_id = $1 AND r.movie_id = $2`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, userID, movieID))
	if err != nil {
		return domain.Review{}, translate(err)
	}
	return review, nil
}

// RatingsForMovie returns every rating value recorded for a movie.
func (r *ReviewsRepository) RatingsForMovie(ctx context.Context, movieID int64) ([]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT rating::int FROM reviews WHERE movie_id = $1`, movieID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scan ratings: %w", err)
	}
	return ratings, nil
}

// ListForMovie returns a movie's reviews, newest first.
func (r *ReviewsRepository) ListForMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM reviews r
        WHERE r.movie_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `, reviewColumns)
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// ListForMovieWithAuthors is ListForMovie with each author's username
// resolved. Authors without a profile show as DeletedUsername.
func (r *ReviewsRepository) ListForMovieWithAuthors(ctx context.Context, movieID int64) ([]domain.AuthoredReview, error) {
	query := fmt.Sprintf(`
        SELECT %s, COALESCE(p.username, $2)
        FROM reviews r
        LEFT JOIN user_profiles p ON p.user_id = r.user_id
        WHERE r.movie_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `, reviewColumns)
	rows, err := r.pool.Query(ctx, query, movieID, DeletedUsername)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.AuthoredReview, 0)
	for rows.Next() {
		var item domain.AuthoredReview
		if err := rows.Scan(
			&item.ID,
			&item.MovieID,
			&item.UserID,
			&item.Rating,
			&item.Comment,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Username,
		); err != nil {
			return nil, err
		}
		normalizeReviewTimes(&item.Review)
		reviews = append(reviews, item)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.MovieID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	normalizeReviewTimes(&review)
	return review, nil
}

func normalizeReviewTimes(review *domain.Review) {
	review.CreatedAt = review.CreatedAt.UTC()
	review.UpdatedAt = review.UpdatedAt.UTC()
}
