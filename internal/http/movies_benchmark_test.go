package httpserver

import (
	"fmt"
	"net/http"
	"testing"
)

func BenchmarkListMovies(b *testing.B) {
	env := buildTestServer(b)
	for i := 1; i <= 200; i++ {
		env.seedMovie(b, int64(i), fmt.Sprintf("Benchmark Movie %03d", i), 1950+i%70)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := doRequest(b, env.srv, http.MethodGet, "/movies?page=3&limit=50&sortBy=title", "", nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkToggleWatchlist(b *testing.B) {
	env := buildTestServer(b)
	env.seedMovie(b, 1, "Benchmark Movie", 2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := doRequest(b, env.srv, http.MethodPost, "/watchlist/toggle", "token-alice", map[string]int{"movie_id": 1})
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
