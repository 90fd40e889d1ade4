package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    m.id,
    m.title,
    m.release_year,
    m.overview,
    m.poster_url,
    m.imdb_rating::float8,
    m.meta_score,
    m.avg_rating,
    m.created_at
`

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// MovieListFilters encapsulates search, sort and pagination options.
type MovieListFilters struct {
	Query      *string
	TextSearch *string
	Year       *int
	MinYear    *int
	MaxYear    *int
	MinRating  *float64
	Genre      *string
	GenreIDs   []int
	SortBy     string
	Order      string
	Page       int
	Limit      int
}

// MoviePage is one page of a filtered movie listing.
type MoviePage struct {
	Items      []domain.Movie
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type sortOption struct {
	column      string
	defaultDesc bool
}

// movieSorts is the allow-list of sort keys. Anything else falls back to id order.
var movieSorts = map[string]sortOption{
	"title":        {column: "m.title"},
	"imdb_rating":  {column: "m.imdb_rating"},
	"release_date": {column: "m.release_year"},
	"meta_score":   {column: "m.meta_score"},
	"avg_rating":   {column: "m.avg_rating"},
	"year":         {column: "m.release_year", defaultDesc: true},
	"rating":       {column: "m.imdb_rating", defaultDesc: true},
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, translate(err)
	}
	return movie, nil
}

// Exists reports whether a movie row with the identifier is present.
func (r *MoviesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM movies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check movie: %w", err)
	}
	return exists, nil
}

// GenreNames returns the names of the genres attached to a movie, alphabetically.
func (r *MoviesRepository) GenreNames(ctx context.Context, movieID int64) ([]string, error) {
	const query = `
        SELECT g.name
        FROM movie_genres mg
        JOIN genres g ON g.id = mg.genre_id
        WHERE mg.movie_id = $1
        ORDER BY g.name
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// SetAverageRating stores the derived average for a movie.
func (r *MoviesRepository) SetAverageRating(ctx context.Context, movieID int64, avg float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE movies SET avg_rating = $2 WHERE id = $1`, movieID, avg)
	if err != nil {
		return fmt.Errorf("update avg_rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the page of movies that match the provided filters together
// with the total match count.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MoviePage, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultPageLimit
	} else if filters.Limit > maxPageLimit {
		filters.Limit = maxPageLimit
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		where = append(where, fmt.Sprintf("m.title ILIKE %s", arg("%"+escapeLike(strings.TrimSpace(*filters.Query))+"%")))
	}
	if filters.TextSearch != nil && strings.TrimSpace(*filters.TextSearch) != "" {
		where = append(where, fmt.Sprintf("to_tsvector('english', m.title) @@ plainto_tsquery('english', %s)", arg(strings.TrimSpace(*filters.TextSearch))))
	}
	if filters.Year != nil {
		where = append(where, fmt.Sprintf("m.release_year = %s", arg(*filters.Year)))
	}
	if filters.MinYear != nil {
		where = append(where, fmt.Sprintf("m.release_year >= %s", arg(*filters.MinYear)))
	}
	if filters.MaxYear != nil {
		where = append(where, fmt.Sprintf("m.release_year <= %s", arg(*filters.MaxYear)))
	}
	if filters.MinRating != nil {
		where = append(where, fmt.Sprintf("m.imdb_rating >= %s", arg(*filters.MinRating)))
	}
	if filters.Genre != nil && strings.TrimSpace(*filters.Genre) != "" {
		where = append(where, fmt.Sprintf(`m.id IN (
            SELECT mg.movie_id FROM movie_genres mg
            JOIN genres g ON g.id = mg.genre_id
            WHERE g.name ILIKE %s)`, arg(escapeLike(strings.TrimSpace(*filters.Genre)))))
	}
	if len(filters.GenreIDs) > 0 {
		ids := make([]int32, len(filters.GenreIDs))
		for i, id := range filters.GenreIDs {
			ids[i] = int32(id)
		}
		where = append(where, fmt.Sprintf("m.id IN (SELECT movie_id FROM movie_genres WHERE genre_id = ANY(%s))", arg(ids)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM movies m"+whereClause, args...).Scan(&total); err != nil {
		return MoviePage{}, fmt.Errorf("count movies: %w", err)
	}

	offset, ok := pageOffset(filters.Page, filters.Limit)
	if !ok {
		return MoviePage{
			Items:      []domain.Movie{},
			Total:      total,
			Page:       filters.Page,
			Limit:      filters.Limit,
			TotalPages: TotalPages(total, filters.Limit),
		}, nil
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieColumns)
	queryBuilder.WriteString(" FROM movies m")
	queryBuilder.WriteString(whereClause)
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(orderClause(filters.SortBy, filters.Order))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filters.Limit, offset))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return MoviePage{}, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Movie, 0, filters.Limit)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return MoviePage{}, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return MoviePage{}, err
	}

	return MoviePage{
		Items:      items,
		Total:      total,
		Page:       filters.Page,
		Limit:      filters.Limit,
		TotalPages: TotalPages(total, filters.Limit),
	}, nil
}

// pageOffset returns the row offset of page. ok is false when the offset
// does not fit in an int64, which is past any real result set.
func pageOffset(page, limit int) (offset int64, ok bool) {
	if page <= 1 || limit <= 0 {
		return 0, true
	}
	skipped := int64(page - 1)
	if skipped > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return skipped * int64(limit), true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// TotalPages returns ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func orderClause(sortBy, order string) string {
	opt, ok := movieSorts[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return "m.id ASC"
	}
	desc := opt.defaultDesc
	switch strings.ToLower(order) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, m.id ASC", opt.column, dir)
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.ReleaseYear,
		&movie.Overview,
		&movie.PosterURL,
		&movie.IMDbRating,
		&movie.MetaScore,
		&movie.AvgRating,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	movie.CreatedAt = movie.CreatedAt.UTC()
	return movie, nil
}
