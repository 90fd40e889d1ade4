package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/poster"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

type toggleAddedResponse struct {
	Action string                  `json:"action"`
	Data   []domain.WatchlistEntry `json:"data"`
}

type toggleRemovedResponse struct {
	Action  string `json:"action"`
	Success bool   `json:"success"`
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	items, err := s.repo.Watchlist.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range items {
		items[i].PosterURL = poster.NormalizePtr(items[i].PosterURL)
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req validate.WatchlistToggle
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.watchlist.Toggle(r.Context(), userID, req.MovieID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if result.Action == catalog.ActionRemoved {
		s.respondJSON(w, http.StatusOK, toggleRemovedResponse{Action: result.Action, Success: true})
		return
	}
	data := []domain.WatchlistEntry{}
	if result.Entry != nil {
		data = append(data, *result.Entry)
	}
	s.respondJSON(w, http.StatusOK, toggleAddedResponse{Action: result.Action, Data: data})
}
