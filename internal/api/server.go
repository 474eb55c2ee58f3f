// Package api exposes the search index over HTTP: full-text search, file
// listing, index reset, and a health endpoint.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arigen-tech/docstream/internal/index"
)

// Indexer is the slice of the search index the API serves. *index.Index
// satisfies it.
type Indexer interface {
	Search(ctx context.Context, query string, idFilter []int64) ([]index.Match, error)
	Files(ctx context.Context) ([]index.Match, error)
	DeleteAll(ctx context.Context) error
	Health(ctx context.Context) error
}

// Pinger reports canonical record store connectivity. *records.Client
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the API dependencies.
type Server struct {
	index  Indexer
	store  Pinger
	logger *slog.Logger
}

// NewServer creates the API server. logger falls back to slog.Default().
func NewServer(idx Indexer, store Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{index: idx, store: store, logger: logger}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", NewLandingHandler())
	mux.HandleFunc("/health", NewHealthHandler(s.index, s.store))
	mux.HandleFunc("GET /files", s.handleFiles)
	mux.HandleFunc("GET /search/all", s.handleSearchAll)
	mux.HandleFunc("POST /search/selected", s.handleSearchSelected)
	mux.HandleFunc("POST /clean", s.handleClean)
	return mux
}
