package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profile, err := s.repo.Profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Profile not found")
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req validate.Profile
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		s.respondError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	profile, err := s.repo.Profiles.Upsert(r.Context(), userID, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusBadRequest, "Username is already taken")
			return
		}
		s.writeError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}
