package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/repository"
)

type memStore struct {
	mu        sync.Mutex
	movies    map[int64]*float64
	reviews   map[int64]domain.Review
	watchlist map[string]domain.WatchlistEntry
	lists     map[int64]domain.List
	listItems map[[2]int64]domain.ListMovie
	nextID    int64

	ratingsErr  error
	setAvgErr   error
	setAvgCalls int
	// addErr is returned once by the next watchlist Add.
	addErr error
	// skipLookup makes watchlist Get report a miss even when present.
	skipLookup bool
}

func newMemStore(movieIDs ...int64) *memStore {
	s := &memStore{
		movies:    map[int64]*float64{},
		reviews:   map[int64]domain.Review{},
		watchlist: map[string]domain.WatchlistEntry{},
		lists:     map[int64]domain.List{},
		listItems: map[[2]int64]domain.ListMovie{},
	}
	for _, id := range movieIDs {
		s.movies[id] = nil
	}
	return s
}

func watchKey(userID string, movieID int64) string {
	return fmt.Sprintf("%s|%d", userID, movieID)
}

func (s *memStore) avg(movieID int64) *float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movies[movieID]
}

func (s *memStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.movies[id]
	return ok, nil
}

func (s *memStore) SetAverageRating(_ context.Context, movieID int64, avg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAvgCalls++
	if s.setAvgErr != nil {
		return s.setAvgErr
	}
	if _, ok := s.movies[movieID]; !ok {
		return repository.ErrNotFound
	}
	s.movies[movieID] = &avg
	return nil
}

func (s *memStore) RatingsForMovie(_ context.Context, movieID int64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ratingsErr != nil {
		return nil, s.ratingsErr
	}
	var out []int
	for _, r := range s.reviews {
		if r.MovieID == movieID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *memStore) GetByUserAndMovie(_ context.Context, userID string, movieID int64) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.UserID == userID && r.MovieID == movieID {
			return r, nil
		}
	}
	return domain.Review{}, repository.ErrNotFound
}

func (s *memStore) Create(_ context.Context, p repository.ReviewCreateParams) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.UserID == p.UserID && r.MovieID == p.MovieID {
			return domain.Review{}, fmt.Errorf("%w: reviews_user_movie_key", repository.ErrConflict)
		}
	}
	s.nextID++
	now := time.Now().UTC()
	r := domain.Review{ID: s.nextID, MovieID: p.MovieID, UserID: p.UserID, Rating: p.Rating, Comment: p.Comment, CreatedAt: now, UpdatedAt: now}
	s.reviews[r.ID] = r
	return r, nil
}

func (s *memStore) Update(_ context.Context, id int64, rating int, comment *string) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return domain.Review{}, repository.ErrNotFound
	}
	r.Rating = rating
	r.Comment = comment
	r.UpdatedAt = time.Now().UTC()
	s.reviews[id] = r
	return r, nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

type memWatchlist struct{ *memStore }

func (w memWatchlist) Get(_ context.Context, userID string, movieID int64) (domain.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.watchlist[watchKey(userID, movieID)]
	if !ok || w.skipLookup {
		return domain.WatchlistEntry{}, repository.ErrNotFound
	}
	return e, nil
}

func (w memWatchlist) Add(_ context.Context, userID string, movieID int64) (domain.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.addErr != nil {
		err := w.addErr
		w.addErr = nil
		return domain.WatchlistEntry{}, err
	}
	key := watchKey(userID, movieID)
	if _, ok := w.watchlist[key]; ok {
		return domain.WatchlistEntry{}, repository.ErrConflict
	}
	e := domain.WatchlistEntry{UserID: userID, MovieID: movieID, AddedAt: time.Now().UTC()}
	w.watchlist[key] = e
	return e, nil
}

func (w memWatchlist) Remove(_ context.Context, userID string, movieID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := watchKey(userID, movieID)
	if _, ok := w.watchlist[key]; !ok {
		return repository.ErrNotFound
	}
	delete(w.watchlist, key)
	return nil
}

func (w memWatchlist) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watchlist)
}

type memLists struct{ *memStore }

func (l memLists) Create(_ context.Context, userID, name string, isPrivate bool) (domain.List, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	list := domain.List{ID: l.nextID, UserID: userID, Name: name, IsPrivate: isPrivate, CreatedAt: time.Now().UTC()}
	l.lists[list.ID] = list
	return list, nil
}

func (l memLists) GetByID(_ context.Context, id int64) (domain.List, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	list, ok := l.lists[id]
	if !ok {
		return domain.List{}, repository.ErrNotFound
	}
	return list, nil
}

func (l memLists) AddMovie(_ context.Context, listID, movieID int64) (domain.ListMovie, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := [2]int64{listID, movieID}
	if _, ok := l.listItems[key]; ok {
		return domain.ListMovie{}, repository.ErrConflict
	}
	lm := domain.ListMovie{ListID: listID, MovieID: movieID, AddedAt: time.Now().UTC()}
	l.listItems[key] = lm
	return lm, nil
}

type recordedEvent struct {
	name   string
	userID string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, name, userID string, _ map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{name: name, userID: userID})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.name
	}
	return out
}
