// Command gotrue-mock serves the subset of the auth provider API the catalog
// uses, backed by a local JSON file. It is meant for development and tests.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/logging"
)

func main() {
	var (
		port     = flag.String("port", "9999", "port to listen on")
		data     = flag.String("data", "mock-gotrue.json", "path to the user data file")
		secret   = flag.String("secret", "dev-jwt-secret", "HS256 signing secret for access tokens")
		apiKey   = flag.String("apikey", "anon-key", "expected apikey header; empty disables the check")
		ttl      = flag.Duration("ttl", time.Hour, "access token lifetime")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	users, err := openUserStore(*data)
	if err != nil {
		logger.Fatal("load user data", zap.String("path", *data), zap.Error(err))
	}

	mock := &provider{
		users:  users,
		secret: []byte(*secret),
		apiKey: *apiKey,
		ttl:    *ttl,
		now:    time.Now,
		logger: logger,
	}

	addr := ":" + *port
	logger.Info("gotrue mock listening", zap.String("addr", addr), zap.Int("users", users.len()))
	if err := http.ListenAndServe(addr, mock.routes()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
