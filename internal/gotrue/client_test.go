package gotrue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Clark-Hu/movie-catalog/internal/auth"
)

const userID = "5b0c8f3e-2f5a-4a7e-9d39-3f9a3c1c2b11"

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, "anon-key", opts)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("not-a-url", "key", Options{}); err == nil {
		t.Fatalf("expected error for relative url")
	}
}

func TestSignIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/token" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.Header.Get("apikey"); got != "anon-key" {
			t.Errorf("apikey header = %q", got)
		}
		var body credentials
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Email != "a@example.com" || body.Password != "secret1" {
			t.Errorf("body = %+v", body)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]string{"id": userID, "email": "a@example.com"},
		})
	}, Options{})

	session, err := client.SignIn(context.Background(), "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if session.AccessToken != "access" || session.RefreshToken != "refresh" || session.ExpiresIn != 3600 {
		t.Fatalf("session = %+v", session)
	}
	if session.User == nil || session.User.ID != userID {
		t.Fatalf("session user = %+v", session.User)
	}
}

func TestSignInRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	}, Options{})

	_, err := client.SignIn(context.Background(), "a@example.com", "wrong")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Status != http.StatusBadRequest || perr.Message != "Invalid login credentials" {
		t.Fatalf("ProviderError = %+v", perr)
	}
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]interface{}
		wantToken  string
		wantUserID string
	}{
		{
			name: "auto confirmed session",
			body: map[string]interface{}{
				"access_token": "access",
				"expires_in":   3600,
				"user":         map[string]string{"id": userID},
			},
			wantToken:  "access",
			wantUserID: userID,
		},
		{
			name:       "confirmation pending",
			body:       map[string]interface{}{"id": userID, "email": "a@example.com"},
			wantUserID: userID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/signup" {
					t.Errorf("path = %s", r.URL.Path)
				}
				writeJSON(w, http.StatusOK, tt.body)
			}, Options{})

			session, err := client.SignUp(context.Background(), "a@example.com", "secret1")
			if err != nil {
				t.Fatalf("SignUp: %v", err)
			}
			if session.AccessToken != tt.wantToken {
				t.Fatalf("AccessToken = %q, want %q", session.AccessToken, tt.wantToken)
			}
			if session.User == nil || session.User.ID != tt.wantUserID {
				t.Fatalf("User = %+v", session.User)
			}
		})
	}
}

func TestSignUpAlreadyRegistered(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"code":       422,
			"error_code": "user_already_exists",
			"msg":        "User already registered",
		})
	}, Options{})

	_, err := client.SignUp(context.Background(), "a@example.com", "secret1")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			writeJSON(w, http.StatusOK, map[string]string{"id": userID, "email": "a@example.com", "role": "authenticated"})
		case "Bearer odd-id":
			writeJSON(w, http.StatusOK, map[string]string{"id": "user-42", "email": "b@example.com"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
		}
	}, Options{})

	id, err := client.Verify(context.Background(), "good")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != userID || id.Email != "a@example.com" || id.Role != "authenticated" {
		t.Fatalf("identity = %+v", id)
	}

	if _, err := client.Verify(context.Background(), "bad"); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := client.Verify(context.Background(), "odd-id"); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("non-uuid user id: expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyProviderFailureIsNotUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, Options{})

	_, err := client.Verify(context.Background(), "token")
	if err == nil || errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("expected a non-auth error, got %v", err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, Options{FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := client.GetUser(context.Background(), "token"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	_, err := client.GetUser(context.Background(), "token")
	if err == nil {
		t.Fatalf("expected breaker error")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("provider saw %d calls, want 2 (breaker should short-circuit)", got)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
	}, Options{FailureThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, _ = client.GetUser(context.Background(), "token")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("provider saw %d calls, want 3", got)
	}
}

func TestNewProviderError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"gotrue msg", `{"code":422,"error_code":"email_exists","msg":"Email taken"}`, "email_exists", "Email taken"},
		{"oauth style", `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "invalid_grant", "Invalid login credentials"},
		{"message key", `{"message":"rate limited"}`, "", "rate limited"},
		{"plain text", "upstream down\n", "", "upstream down"},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := newProviderError(http.StatusBadRequest, []byte(tt.body))
			if perr.Code != tt.wantCode || perr.Message != tt.wantMsg {
				t.Fatalf("got code=%q msg=%q, want code=%q msg=%q", perr.Code, perr.Message, tt.wantCode, tt.wantMsg)
			}
			if perr.Error() == "" {
				t.Fatalf("Error() should never be empty")
			}
		})
	}
}
