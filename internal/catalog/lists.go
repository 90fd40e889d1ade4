package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

// ErrMovieAlreadyListed indicates the movie is already in the list.
var ErrMovieAlreadyListed = fmt.Errorf("movie already in list: %w", ErrConflict)

// Lists manages user-curated lists.
type Lists struct {
	movies MovieStore
	store  ListStore
}

// NewLists builds the list service.
func NewLists(movies MovieStore, store ListStore) *Lists {
	return &Lists{movies: movies, store: store}
}

// Create makes a new list owned by userID.
func (l *Lists) Create(ctx context.Context, userID, name string, isPrivate bool) (domain.List, error) {
	list, err := l.store.Create(ctx, userID, name, isPrivate)
	if err != nil {
		return domain.List{}, fmt.Errorf("create list: %w", err)
	}
	return list, nil
}

// AddMovie appends movieID to a list owned by userID.
func (l *Lists) AddMovie(ctx context.Context, userID string, listID, movieID int64) (domain.ListMovie, error) {
	list, err := l.store.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ListMovie{}, ErrListNotFound
		}
		return domain.ListMovie{}, fmt.Errorf("load list: %w", err)
	}
	if err := RequireOwner(list.UserID, userID); err != nil {
		return domain.ListMovie{}, err
	}

	exists, err := l.movies.Exists(ctx, movieID)
	if err != nil {
		return domain.ListMovie{}, err
	}
	if !exists {
		return domain.ListMovie{}, ErrMovieNotFound
	}

	lm, err := l.store.AddMovie(ctx, listID, movieID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return domain.ListMovie{}, ErrMovieAlreadyListed
		case errors.Is(err, repository.ErrMissingReference):
			return domain.ListMovie{}, ErrMovieNotFound
		}
		return domain.ListMovie{}, fmt.Errorf("add list movie: %w", err)
	}
	return lm, nil
}
