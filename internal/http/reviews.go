package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	movieID, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	review, err := s.reviews.Create(r.Context(), userID, movieID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, review)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	reviewID, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, ok := s.decodeReview(w, r)
	if !ok {
		return
	}

	review, err := s.reviews.Update(r.Context(), userID, reviewID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	reviewID, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.reviews.Delete(r.Context(), userID, reviewID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) decodeReview(w http.ResponseWriter, r *http.Request) (catalog.ReviewInput, bool) {
	var req validate.Review
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return catalog.ReviewInput{}, false
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, r, err)
		return catalog.ReviewInput{}, false
	}
	return catalog.ReviewInput{Rating: *req.Rating, Comment: req.Comment}, true
}
