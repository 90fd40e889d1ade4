package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a unique constraint rejected the write.
	ErrConflict = errors.New("repository: conflict")
	// ErrMissingReference indicates a foreign key points at a missing row.
	ErrMissingReference = errors.New("repository: missing reference")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository aggregates all table-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Reviews   *ReviewsRepository
	Watchlist *WatchlistRepository
	Profiles  *ProfilesRepository
	Lists     *ListsRepository
	Genres    *GenresRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
		Watchlist: &WatchlistRepository{pool: pool},
		Profiles:  &ProfilesRepository{pool: pool},
		Lists:     &ListsRepository{pool: pool},
		Genres:    &GenresRepository{pool: pool},
	}
}

// translate maps driver errors onto the repository sentinels. Other errors
// pass through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrMissingReference, pgErr.ConstraintName)
		}
	}
	return err
}
