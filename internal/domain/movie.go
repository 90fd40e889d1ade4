package domain

import "time"

// Movie represents a catalog row. AvgRating is a derived value maintained by
// the rating aggregator and may briefly lag the reviews table.
type Movie struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"release_year"`
	Overview    *string   `json:"overview"`
	PosterURL   *string   `json:"poster_url"`
	IMDbRating  *float64  `json:"imdb_rating"`
	MetaScore   *int      `json:"meta_score"`
	AvgRating   *float64  `json:"avg_rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovieDetail is a movie together with its genre names and reviews.
type MovieDetail struct {
	Movie
	Genres  []string `json:"genres"`
	Reviews []Review `json:"reviews"`
}

// Genre is a read-only classification.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
