package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/movie-catalog/internal/activity"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// Toggle actions.
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// ToggleResult reports what a toggle did. Entry is set only when added.
type ToggleResult struct {
	Action string
	Entry  *domain.WatchlistEntry
}

// Watchlist flips watchlist membership.
type Watchlist struct {
	movies MovieStore
	store  WatchlistStore
	events EventPublisher
}

// NewWatchlist builds the watchlist service. events may be nil.
func NewWatchlist(movies MovieStore, store WatchlistStore, events EventPublisher) *Watchlist {
	return &Watchlist{movies: movies, store: store, events: orNop(events)}
}

// Toggle removes the (user, movie) entry when present and adds it otherwise.
// The look-up and the write are separate calls; a concurrent insert that
// wins the race surfaces as ErrConflict.
func (w *Watchlist) Toggle(ctx context.Context, userID string, movieID int64) (ToggleResult, error) {
	exists, err := w.movies.Exists(ctx, movieID)
	if err != nil {
		return ToggleResult{}, err
	}
	if !exists {
		return ToggleResult{}, ErrMovieNotFound
	}

	_, err = w.store.Get(ctx, userID, movieID)
	switch {
	case err == nil:
		// ErrNotFound here means a concurrent toggle removed it first.
		if err := w.store.Remove(ctx, userID, movieID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return ToggleResult{}, fmt.Errorf("remove watchlist entry: %w", err)
		}
		metrics.WatchlistToggles.WithLabelValues(ActionRemoved).Inc()
		w.events.Publish(ctx, activity.WatchlistRemoved, userID, map[string]interface{}{"movie_id": movieID})
		return ToggleResult{Action: ActionRemoved}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return ToggleResult{}, fmt.Errorf("lookup watchlist entry: %w", err)
	}

	entry, err := w.store.Add(ctx, userID, movieID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ToggleResult{}, ErrConflict
		case errors.Is(err, repository.ErrMissingReference):
			return ToggleResult{}, ErrMovieNotFound
		}
		return ToggleResult{}, fmt.Errorf("add watchlist entry: %w", err)
	}
	metrics.WatchlistToggles.WithLabelValues(ActionAdded).Inc()
	w.events.Publish(ctx, activity.WatchlistAdded, userID, map[string]interface{}{"movie_id": movieID})
	return ToggleResult{Action: ActionAdded, Entry: &entry}, nil
}
