// Package storage opens the candidate repository named by a store URL.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/interview-tracker/internal/repository"
	"github.com/sakif/interview-tracker/internal/repository/postgres"
	"github.com/sakif/interview-tracker/internal/repository/sqlite"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Target is a parsed store URL.
type Target struct {
	Backend Backend
	DSN     string // what the backend's constructor receives
}

// Parse maps a store URL to a backend:
//
//	postgres://… or postgresql://…  → Postgres (DSN passed through)
//	sqlite://path or file:path       → SQLite at path
//	:memory: or any other value      → SQLite, value used as a file path
func Parse(storeURL string) (Target, error) {
	u := strings.TrimSpace(storeURL)
	switch {
	case u == "":
		return Target{}, fmt.Errorf("store url is empty")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return Target{Backend: BackendPostgres, DSN: u}, nil
	case strings.HasPrefix(u, "sqlite://"):
		path := strings.TrimPrefix(u, "sqlite://")
		if path == "" {
			return Target{}, fmt.Errorf("sqlite url %q has no path", u)
		}
		return Target{Backend: BackendSQLite, DSN: path}, nil
	case strings.HasPrefix(u, "file:"):
		return Target{Backend: BackendSQLite, DSN: u}, nil
	case strings.Contains(u, "://"):
		return Target{}, fmt.Errorf("unsupported store url scheme in %q", u)
	default:
		return Target{Backend: BackendSQLite, DSN: u}, nil
	}
}

// Open connects to the store and verifies it is reachable.
// A file-backed SQLite database gets its parent directory created.
func Open(ctx context.Context, storeURL string) (repository.CandidateRepository, Target, error) {
	target, err := Parse(storeURL)
	if err != nil {
		return nil, Target{}, err
	}

	switch target.Backend {
	case BackendPostgres:
		store, err := postgres.New(ctx, target.DSN)
		if err != nil {
			return nil, target, err
		}
		return store, target, nil

	default:
		if target.DSN != ":memory:" && !strings.HasPrefix(target.DSN, "file:") {
			if err := os.MkdirAll(filepath.Dir(target.DSN), 0o755); err != nil {
				return nil, target, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(target.DSN)
		if err != nil {
			return nil, target, err
		}
		return db, target, nil
	}
}
