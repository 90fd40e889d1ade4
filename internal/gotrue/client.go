// Package gotrue is a client for the hosted auth provider's GoTrue-compatible
// HTTP API.
package gotrue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/metrics"
)

const maxResponseBytes = 1 << 20

// ErrAlreadyRegistered is returned by SignUp for an email that already has an account.
var ErrAlreadyRegistered = errors.New("gotrue: user already registered")

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gotrue: provider returned %d", e.Status)
	}
	return e.Message
}

// User is the provider's account record.
type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Role         string                 `json:"role,omitempty"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// Session is an issued token pair. AccessToken is empty when sign-up still
// awaits email confirmation.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         *User  `json:"user"`
}

// Options tunes the client.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
	// HTTPClient replaces the default transport, mainly for tests.
	HTTPClient *http.Client
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// Client talks to the auth provider. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

// NewClient constructs a provider client rooted at baseURL.
func NewClient(baseURL, apiKey string, opts Options) (*Client, error) {
	logger := logging.OrNop(opts.Logger)
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse auth url: %q is not absolute", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: parsed,
		apiKey:  apiKey,
		client:  httpClient,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "gotrue",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.AuthProviderBreakerState.Set(float64(to))
			logger.Warn("gotrue: circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// countsAsSuccess keeps caller mistakes (4xx) and caller cancellations from
// tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Status < http.StatusInternalServerError
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges an email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var session Session
	query := url.Values{"grant_type": {"password"}}
	if err := c.do(ctx, "sign_in", http.MethodPost, "/auth/v1/token", query, "", credentials{email, password}, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

type signUpPayload struct {
	Session
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SignUp creates an account. The provider answers with a session when
// accounts auto-confirm and with the bare user otherwise.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	var payload signUpPayload
	err := c.do(ctx, "sign_up", http.MethodPost, "/auth/v1/signup", nil, "", credentials{email, password}, &payload)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && isAlreadyRegistered(perr) {
			return Session{}, fmt.Errorf("%w: %s", ErrAlreadyRegistered, perr.Message)
		}
		return Session{}, err
	}
	if payload.AccessToken != "" || payload.User != nil {
		return payload.Session, nil
	}
	return Session{User: &User{ID: payload.ID, Email: payload.Email, Role: payload.Role}}, nil
}

// GetUser returns the account owning an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (User, error) {
	var user User
	if err := c.do(ctx, "get_user", http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Verify implements auth.Verifier by asking the provider who owns the token.
func (c *Client) Verify(ctx context.Context, token string) (auth.Identity, error) {
	user, err := c.GetUser(ctx, token)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status < http.StatusInternalServerError {
			return auth.Identity{}, fmt.Errorf("%w: %s", auth.ErrUnauthorized, perr.Error())
		}
		return auth.Identity{}, err
	}
	if user.ID == "" {
		return auth.Identity{}, fmt.Errorf("%w: provider returned no user", auth.ErrUnauthorized)
	}
	if _, err := uuid.Parse(user.ID); err != nil {
		return auth.Identity{}, fmt.Errorf("%w: provider user id is not a uuid", auth.ErrUnauthorized)
	}
	return auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, body, out interface{}) error {
	rel := &url.URL{Path: c.baseURL.Path + path}
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	endpoint := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	payload, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s response: %w", op, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, newProviderError(resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status < http.StatusInternalServerError {
			metrics.RecordAuthProviderCall(op, "rejected")
		} else {
			metrics.RecordAuthProviderCall(op, "error")
			c.logger.Warn("gotrue: request failed", zap.String("operation", op), zap.Error(err))
		}
		return err
	}
	metrics.RecordAuthProviderCall(op, "ok")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

type errorPayload struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func newProviderError(status int, body []byte) *ProviderError {
	perr := &ProviderError{Status: status}
	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		perr.Message = strings.TrimSpace(string(body))
		return perr
	}
	perr.Code = p.ErrorCode
	if perr.Code == "" {
		perr.Code = p.Error
	}
	for _, m := range []string{p.ErrorDescription, p.Msg, p.Message, p.Error} {
		if m != "" {
			perr.Message = m
			break
		}
	}
	return perr
}

func isAlreadyRegistered(perr *ProviderError) bool {
	if perr.Code == "user_already_exists" || perr.Code == "email_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(perr.Message), "already registered")
}
