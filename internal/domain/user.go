package domain

import "time"

// Profile is the public identity attached to an auth user.
type Profile struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WatchlistEntry marks a movie as saved by a user.
type WatchlistEntry struct {
	UserID  string    `json:"user_id"`
	MovieID int64     `json:"movie_id"`
	AddedAt time.Time `json:"added_at"`
}

// WatchlistItem is a watchlist entry expanded with its movie.
type WatchlistItem struct {
	AddedAt time.Time `json:"added_at"`
	Movie
}
