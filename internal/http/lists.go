package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/poster"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req validate.ListCreate
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.lists.Create(r.Context(), userID, req.Name, req.Private())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, list)
}

func (s *Server) handleAddListMovie(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	listID, err := idParam(r, "listId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req validate.ListMovieAdd
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entry, err := s.lists.AddMovie(r.Context(), userID, listID, req.MovieID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleMyLists(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	lists, err := s.repo.Lists.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for i := range lists {
		for j := range lists[i].Movies {
			lists[i].Movies[j].PosterURL = poster.NormalizePtr(lists[i].Movies[j].PosterURL)
		}
	}
	s.respondJSON(w, http.StatusOK, lists)
}
