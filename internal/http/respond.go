package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/catalog"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("http: failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var sizeError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusBadRequest, "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &sizeError):
		s.respondError(w, http.StatusBadRequest, "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusBadRequest, "Request body cannot be empty")
	case strings.Contains(err.Error(), "unknown field"):
		s.respondError(w, http.StatusBadRequest, "Request body contains an unknown field")
	default:
		s.respondError(w, http.StatusBadRequest, "Unable to parse request body")
	}
}

// writeError maps service and repository errors onto the error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		s.respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, catalog.ErrMovieNotFound):
		s.respondError(w, http.StatusNotFound, "Movie not found")
	case errors.Is(err, catalog.ErrReviewNotFound):
		s.respondError(w, http.StatusNotFound, "Review not found")
	case errors.Is(err, catalog.ErrListNotFound):
		s.respondError(w, http.StatusNotFound, "List not found")
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, catalog.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "You do not have permission to modify this resource")
	case errors.Is(err, catalog.ErrAlreadyReviewed):
		s.respondError(w, http.StatusBadRequest, "You have already reviewed this movie")
	case errors.Is(err, catalog.ErrMovieAlreadyListed):
		s.respondError(w, http.StatusBadRequest, "Movie is already in this list")
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, repository.ErrConflict):
		s.respondError(w, http.StatusBadRequest, "Resource already exists")
	default:
		s.logger.Error("http: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
		})
	}
}

// idParam reads a positive integer route parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &validate.Error{Field: name, Message: name + " must be a positive integer"}
	}
	return id, nil
}
