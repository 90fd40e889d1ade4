package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// GenresRepository reads the genre catalog.
type GenresRepository struct {
	pool *pgxpool.Pool
}

// List returns every genre ordered by name.
func (r *GenresRepository) List(ctx context.Context) ([]domain.Genre, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	genres, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Genre])
	if err != nil {
		return nil, fmt.Errorf("scan genres: %w", err)
	}
	if genres == nil {
		genres = []domain.Genre{}
	}
	return genres, nil
}
