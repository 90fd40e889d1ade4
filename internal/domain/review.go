package domain

import "time"

// Review is a single user's rating of a movie. One review exists per
// (user, movie) pair.
type Review struct {
	ID        int64     `json:"id"`
	MovieID   int64     `json:"movie_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthoredReview carries the author's display name alongside the review.
type AuthoredReview struct {
	Review
	Username string `json:"username"`
}
