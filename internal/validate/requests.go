package validate

// Review is the body of review create and update requests.
type Review struct {
	Rating  *int    `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}

// WatchlistToggle is the body of POST /watchlist/toggle.
type WatchlistToggle struct {
	MovieID int64 `json:"movie_id" validate:"required,min=1"`
}

// ListCreate is the body of POST /lists. A missing isPrivate means private.
type ListCreate struct {
	Name      string `json:"name" validate:"required,max=100"`
	IsPrivate *bool  `json:"isPrivate"`
}

// Private resolves the isPrivate default.
func (l ListCreate) Private() bool {
	return l.IsPrivate == nil || *l.IsPrivate
}

// ListMovieAdd is the body of POST /lists/{listId}/movies.
type ListMovieAdd struct {
	MovieID int64 `json:"movieId" validate:"required,min=1"`
}

// Profile is the body of POST /users/profile.
type Profile struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// Credentials is the body of the login and register requests.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
