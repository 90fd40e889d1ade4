package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every missing-entity error below.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor does not own the resource.
	ErrForbidden = errors.New("you do not have permission to modify this resource")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("resource already exists")
	// ErrAlreadyReviewed indicates the user already reviewed the movie.
	ErrAlreadyReviewed = errors.New("you have already reviewed this movie")
)

var (
	ErrMovieNotFound  = fmt.Errorf("movie %w", ErrNotFound)
	ErrReviewNotFound = fmt.Errorf("review %w", ErrNotFound)
	ErrListNotFound   = fmt.Errorf("list %w", ErrNotFound)
)

// RequireOwner returns ErrForbidden unless actor owns the resource.
func RequireOwner(owner, actor string) error {
	if owner == "" || owner != actor {
		return ErrForbidden
	}
	return nil
}
