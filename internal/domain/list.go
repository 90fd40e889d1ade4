package domain

import "time"

// List is a named, owner-scoped collection of movies.
type List struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMovie is a membership row of a list.
type ListMovie struct {
	ListID  int64     `json:"list_id"`
	MovieID int64     `json:"movie_id"`
	AddedAt time.Time `json:"added_at"`
}

// ListMovieSummary is the slice of movie data shown inside a list.
type ListMovieSummary struct {
	MovieID   int64   `json:"movie_id"`
	Title     string  `json:"title"`
	PosterURL *string `json:"poster_url"`
}

// ListWithMovies is a list expanded with its member movies.
type ListWithMovies struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	IsPrivate bool               `json:"is_private"`
	Movies    []ListMovieSummary `json:"list_movies"`
}
