package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Clark-Hu/movie-catalog/internal/activity"
	"github.com/Clark-Hu/movie-catalog/internal/gotrue"
	"github.com/Clark-Hu/movie-catalog/internal/validate"
)

// authResponse mirrors the provider SDK's {user, session} shape. Session is
// nil while sign-up awaits email confirmation.
type authResponse struct {
	User    *gotrue.User     `json:"user"`
	Session *sessionResponse `json:"session"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := s.accounts.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		s.writeProviderError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toAuthResponse(session))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := s.accounts.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, gotrue.ErrAlreadyRegistered) {
			s.respondError(w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		s.writeProviderError(w, r, err)
		return
	}

	if s.events != nil && session.User != nil {
		s.events.Publish(r.Context(), activity.UserRegistered, session.User.ID, map[string]interface{}{
			"confirmed": session.AccessToken != "",
		})
	}
	s.respondJSON(w, http.StatusOK, toAuthResponse(session))
}

func toAuthResponse(session gotrue.Session) authResponse {
	resp := authResponse{User: session.User}
	if session.AccessToken != "" {
		resp.Session = &sessionResponse{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			ExpiresIn:    session.ExpiresIn,
		}
	}
	return resp
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (validate.Credentials, bool) {
	var creds validate.Credentials
	if err := decodeJSONBody(w, r, &creds); err != nil {
		s.respondDecodeError(w, err)
		return creds, false
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.validator.Struct(creds); err != nil {
		s.writeError(w, r, err)
		return creds, false
	}
	return creds, true
}

// writeProviderError relays a provider rejection as 400 with the provider's
// message. Transport failures and open-breaker errors fall through to 500.
func (s *Server) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *gotrue.ProviderError
	if errors.As(err, &perr) && perr.Status < http.StatusInternalServerError {
		s.respondError(w, http.StatusBadRequest, perr.Error())
		return
	}
	s.writeError(w, r, err)
}
