// Package catalog holds the write-side rules of the movie catalog: review
// lifecycle, the derived average rating, watchlist toggling and list
// ownership. Persistence is reached through small interfaces satisfied by
// the repository package.
package catalog

import (
	"context"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// MovieStore is the subset of movie persistence the services need.
type MovieStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
	SetAverageRating(ctx context.Context, movieID int64, avg float64) error
}

// RatingSource lists the rating values recorded for a movie.
type RatingSource interface {
	RatingsForMovie(ctx context.Context, movieID int64) ([]int, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	RatingSource
	GetByID(ctx context.Context, id int64) (domain.Review, error)
	GetByUserAndMovie(ctx context.Context, userID string, movieID int64) (domain.Review, error)
	Create(ctx context.Context, params repository.ReviewCreateParams) (domain.Review, error)
	Update(ctx context.Context, id int64, rating int, comment *string) (domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

// WatchlistStore persists watchlist membership.
type WatchlistStore interface {
	Get(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, error)
	Add(ctx context.Context, userID string, movieID int64) (domain.WatchlistEntry, error)
	Remove(ctx context.Context, userID string, movieID int64) error
}

// ListStore persists user lists.
type ListStore interface {
	Create(ctx context.Context, userID, name string, isPrivate bool) (domain.List, error)
	GetByID(ctx context.Context, id int64) (domain.List, error)
	AddMovie(ctx context.Context, listID, movieID int64) (domain.ListMovie, error)
}

// EventPublisher receives fire-and-forget activity events.
type EventPublisher interface {
	Publish(ctx context.Context, name, userID string, props map[string]interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, map[string]interface{}) {}

func orNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
