package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/activity"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// ReviewInput is a validated review body.
type ReviewInput struct {
	Rating  int
	Comment *string
}

// Reviews implements the review lifecycle.
type Reviews struct {
	movies     MovieStore
	store      ReviewStore
	aggregator *RatingAggregator
	events     EventPublisher
	logger     *zap.Logger
}

// NewReviews builds the review service. events may be nil.
func NewReviews(movies MovieStore, store ReviewStore, aggregator *RatingAggregator, events EventPublisher, logger *zap.Logger) *Reviews {
	return &Reviews{
		movies:     movies,
		store:      store,
		aggregator: aggregator,
		events:     orNop(events),
		logger:     logging.OrNop(logger),
	}
}

// Create adds the user's review of movieID and refreshes the movie rating.
func (s *Reviews) Create(ctx context.Context, userID string, movieID int64, in ReviewInput) (domain.Review, error) {
	exists, err := s.movies.Exists(ctx, movieID)
	if err != nil {
		return domain.Review{}, err
	}
	if !exists {
		return domain.Review{}, ErrMovieNotFound
	}

	// Early exit only; the unique index decides races.
	_, err = s.store.GetByUserAndMovie(ctx, userID, movieID)
	switch {
	case err == nil:
		return domain.Review{}, ErrAlreadyReviewed
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Review{}, fmt.Errorf("lookup review: %w", err)
	}

	review, err := s.store.Create(ctx, repository.ReviewCreateParams{
		MovieID: movieID,
		UserID:  userID,
		Rating:  in.Rating,
		Comment: in.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return domain.Review{}, ErrAlreadyReviewed
		case errors.Is(err, repository.ErrMissingReference):
			return domain.Review{}, ErrMovieNotFound
		}
		return domain.Review{}, fmt.Errorf("create review: %w", err)
	}

	s.aggregator.Refresh(ctx, movieID)
	s.events.Publish(ctx, activity.ReviewCreated, userID, reviewProps(review))
	return review, nil
}

// Update replaces the rating and comment of a review owned by userID.
func (s *Reviews) Update(ctx context.Context, userID string, reviewID int64, in ReviewInput) (domain.Review, error) {
	if _, err := s.owned(ctx, userID, reviewID); err != nil {
		return domain.Review{}, err
	}

	review, err := s.store.Update(ctx, reviewID, in.Rating, in.Comment)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Review{}, ErrReviewNotFound
		}
		return domain.Review{}, fmt.Errorf("update review: %w", err)
	}

	s.aggregator.Refresh(ctx, review.MovieID)
	s.events.Publish(ctx, activity.ReviewUpdated, userID, reviewProps(review))
	return review, nil
}

// Delete removes a review owned by userID.
func (s *Reviews) Delete(ctx context.Context, userID string, reviewID int64) error {
	review, err := s.owned(ctx, userID, reviewID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.aggregator.Refresh(ctx, review.MovieID)
	s.events.Publish(ctx, activity.ReviewDeleted, userID, reviewProps(review))
	return nil
}

func (s *Reviews) owned(ctx context.Context, userID string, reviewID int64) (domain.Review, error) {
	review, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Review{}, ErrReviewNotFound
		}
		return domain.Review{}, fmt.Errorf("load review: %w", err)
	}
	if err := RequireOwner(review.UserID, userID); err != nil {
		s.logger.Info("catalog: review ownership denied",
			zap.Int64("review_id", reviewID),
			zap.String("user_id", userID),
		)
		return domain.Review{}, err
	}
	return review, nil
}

func reviewProps(r domain.Review) map[string]interface{} {
	return map[string]interface{}{
		"review_id": r.ID,
		"movie_id":  r.MovieID,
		"rating":    r.Rating,
	}
}
