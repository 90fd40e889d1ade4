package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
)

const (
	audience = "authenticated"
	maxBody  = 1 << 16
)

type provider struct {
	users  *userStore
	secret []byte
	apiKey string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type userResponse struct {
	ID        string    `json:"id"`
	Aud       string    `json:"aud"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p *provider) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(p.requireAPIKey)

	r.Post("/auth/v1/signup", p.handleSignUp)
	r.Post("/auth/v1/token", p.handleToken)
	r.Get("/auth/v1/user", p.handleUser)
	return r
}

func (p *provider) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.apiKey != "" && r.Header.Get("apikey") != p.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *provider) handleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := p.readCredentials(w, r)
	if !ok {
		return
	}
	a, err := p.users.create(creds.Email, creds.Password, p.now())
	if errors.Is(err, errEmailTaken) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error_code": "user_already_exists",
			"msg":        "User already registered",
		})
		return
	}
	if err != nil {
		p.logger.Error("gotrue mock: create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "Database error saving new user"})
		return
	}
	p.logger.Info("gotrue mock: user registered", zap.String("user_id", a.ID))
	p.writeSession(w, a)
}

func (p *provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if grant := r.URL.Query().Get("grant_type"); grant != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "Only the password grant is supported",
		})
		return
	}
	creds, ok := p.readCredentials(w, r)
	if !ok {
		return
	}
	a, err := p.users.authenticate(creds.Email, creds.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}
	p.writeSession(w, a)
}

func (p *provider) handleUser(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "This endpoint requires a Bearer token"})
		return
	}
	claims, err := auth.JWTVerifier{Secret: p.secret, Audience: audience}.Parse(strings.TrimSpace(token))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT: " + err.Error()})
		return
	}
	a, found := p.users.byID(claims.Subject)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(a))
}

func (p *provider) readCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Could not parse request body as JSON"})
		return credentials{}, false
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Email and password are required"})
		return credentials{}, false
	}
	return creds, true
}

func (p *provider) writeSession(w http.ResponseWriter, a account) {
	now := p.now()
	expires := now.Add(p.ttl)
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: a.Email,
		Role:  audience,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		p.logger.Error("gotrue mock: sign token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  signed,
		TokenType:    "bearer",
		ExpiresIn:    int(p.ttl.Seconds()),
		ExpiresAt:    expires.Unix(),
		RefreshToken: uuid.NewString(),
		User:         toUserResponse(a),
	})
}

func toUserResponse(a account) userResponse {
	return userResponse{ID: a.ID, Aud: audience, Role: audience, Email: a.Email, CreatedAt: a.CreatedAt}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
