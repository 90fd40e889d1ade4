package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
)

// RatingAggregator keeps movies.avg_rating equal to the mean of the movie's
// review ratings.
type RatingAggregator struct {
	ratings RatingSource
	movies  MovieStore
	logger  *zap.Logger
}

// NewRatingAggregator wires the aggregator to its stores.
func NewRatingAggregator(ratings RatingSource, movies MovieStore, logger *zap.Logger) *RatingAggregator {
	return &RatingAggregator{ratings: ratings, movies: movies, logger: logging.OrNop(logger)}
}

// Mean returns the arithmetic mean of ratings. ok is false for an empty slice.
func Mean(ratings []int) (mean float64, ok bool) {
	if len(ratings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings)), true
}

// Recompute stores the current mean rating for movieID. With no reviews left
// the stored value is left as it is.
func (a *RatingAggregator) Recompute(ctx context.Context, movieID int64) error {
	ratings, err := a.ratings.RatingsForMovie(ctx, movieID)
	if err != nil {
		return fmt.Errorf("fetch ratings: %w", err)
	}
	mean, ok := Mean(ratings)
	if !ok {
		return nil
	}
	if err := a.movies.SetAverageRating(ctx, movieID, mean); err != nil {
		return fmt.Errorf("store average rating: %w", err)
	}
	return nil
}

// Refresh runs Recompute and swallows its error. The review write that
// triggered it has already succeeded and is never undone.
func (a *RatingAggregator) Refresh(ctx context.Context, movieID int64) {
	if err := a.Recompute(ctx, movieID); err != nil {
		metrics.RatingRecomputeFailures.Inc()
		a.logger.Warn("catalog: rating recompute failed",
			zap.Int64("movie_id", movieID),
			zap.Error(err),
		)
	}
}
