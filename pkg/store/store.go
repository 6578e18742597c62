// Package store provides the storage handles behind the user directory.
//
// Postgres is the production handle, opened explicitly at startup and closed
// on shutdown. Memory is a process-local handle for tests and local runs.
package store

import (
	"context"

	"github.com/Sternrassler/user-directory/pkg/users"
)

// Query selects a window of users ordered by name, then id.
type Query struct {
	Offset int
	Limit  int

	// Letter, when set, keeps users whose upper-cased first character
	// equals it. Callers pass an already normalized A-Z letter.
	Letter string
}

// QueryFor converts a normalized page request into a storage query.
func QueryFor(req users.PageRequest) Query {
	offset, limit := req.Window()
	return Query{Offset: offset, Limit: limit, Letter: req.Letter}
}

// Handle is implemented by every storage backend.
type Handle interface {
	ListUsers(ctx context.Context, q Query) ([]users.User, error)
	CreateUser(ctx context.Context, name string) (users.User, error)
	CreateUsers(ctx context.Context, names []string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
