package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errEmailTaken         = errors.New("user already registered")
	errInvalidCredentials = errors.New("invalid login credentials")
)

type account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// userStore keeps accounts keyed by lower-cased email. Every write rewrites
// the whole file; an empty path keeps accounts in memory only.
type userStore struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]account
	cost     int
}

func openUserStore(path string) (*userStore, error) {
	s := &userStore{path: path, accounts: map[string]account{}, cost: bcrypt.DefaultCost}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return s, nil
	}
	var list []account
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, a := range list {
		s.accounts[normalizeEmail(a.Email)] = a
	}
	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *userStore) create(email, password string, now time.Time) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return account{}, fmt.Errorf("hash password: %w", err)
	}

	key := normalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return account{}, errEmailTaken
	}
	a := account{
		ID:           uuid.NewString(),
		Email:        key,
		PasswordHash: string(hash),
		CreatedAt:    now.UTC(),
	}
	s.accounts[key] = a
	if err := s.saveLocked(); err != nil {
		delete(s.accounts, key)
		return account{}, err
	}
	return a, nil
}

func (s *userStore) authenticate(email, password string) (account, error) {
	s.mu.RLock()
	a, ok := s.accounts[normalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return account{}, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return account{}, errInvalidCredentials
	}
	return a, nil
}

func (s *userStore) byID(id string) (account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return account{}, false
}

func (s *userStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	list := make([]account, 0, len(s.accounts))
	for _, a := range s.accounts {
		list = append(list, a)
	}
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".gotrue-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
