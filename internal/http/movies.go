package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/poster"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type moviePageResponse struct {
	Data       []domain.Movie     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.MovieQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondMoviePage(w, r, movieFilters(q))
}

func (s *Server) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	q, err := s.validator.SearchQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondMoviePage(w, r, searchFilters(q))
}

func (s *Server) respondMoviePage(w http.ResponseWriter, r *http.Request, filters repository.MovieListFilters) {
	page, err := s.repo.Movies.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]domain.Movie, 0, len(page.Items))
	for _, movie := range page.Items {
		items = append(items, normalizeMovie(movie))
	}
	s.respondJSON(w, http.StatusOK, moviePageResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	})
}

func movieFilters(q validate.MovieQuery) repository.MovieListFilters {
	filters := repository.MovieListFilters{
		Year:      q.Year,
		MinRating: q.MinRating,
		SortBy:    q.SortBy,
		Order:     q.Order,
		Page:      q.Page,
		Limit:     q.Limit,
	}
	if q.Q != "" {
		filters.Query = &q.Q
	}
	if q.Genre != "" {
		filters.Genre = &q.Genre
	}
	return filters
}

func searchFilters(q validate.SearchQuery) repository.MovieListFilters {
	filters := repository.MovieListFilters{
		MinYear:  &q.MinYear,
		MaxYear:  &q.MaxYear,
		GenreIDs: q.Genres,
		SortBy:   q.SortBy,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if q.Q != "" {
		filters.TextSearch = &q.Q
	}
	return filters
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = catalog.ErrMovieNotFound
		}
		s.writeError(w, r, err)
		return
	}
	genres, err := s.repo.Movies.GenreNames(r.Context(), id)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("load genres: %w", err))
		return
	}
	reviews, err := s.repo.Reviews.ListForMovie(r.Context(), id)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("load reviews: %w", err))
		return
	}

	s.respondJSON(w, http.StatusOK, domain.MovieDetail{
		Movie:   normalizeMovie(movie),
		Genres:  genres,
		Reviews: reviews,
	})
}

func (s *Server) handleMovieReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	reviews, err := s.repo.Reviews.ListForMovieWithAuthors(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.repo.Genres.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, genres)
}

func normalizeMovie(movie domain.Movie) domain.Movie {
	movie.PosterURL = poster.NormalizePtr(movie.PosterURL)
	return movie
}
