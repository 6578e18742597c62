package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/jonboulle/clockwork"
)

// ErrClosed is returned by a Memory store after Close.
var ErrClosed = errors.New("store closed")

// Memory is an in-process storage handle. Rows are kept in users.Compare
// order, the order the SQL queries list them in.
type Memory struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	rows   []users.User
	nextID int64
	closed bool
}

// NewMemory returns an empty store. A nil clock uses the real clock.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{clock: clock, nextID: 1}
}

// ListUsers returns one window of users.
func (m *Memory) ListUsers(ctx context.Context, q Query) ([]users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	result := make([]users.User, 0, q.Limit)
	skipped := 0
	for _, u := range m.rows {
		if q.Letter != "" && u.Initial() != q.Letter {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		if len(result) == q.Limit {
			break
		}
		result = append(result, u)
	}

	return result, nil
}

// CreateUser inserts a user.
func (m *Memory) CreateUser(ctx context.Context, name string) (users.User, error) {
	if err := ctx.Err(); err != nil {
		return users.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return users.User{}, ErrClosed
	}

	return m.insertLocked(name), nil
}

// CreateUsers inserts all names atomically.
func (m *Memory) CreateUsers(ctx context.Context, names []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	for _, name := range names {
		m.insertLocked(name)
	}
	return len(names), nil
}

func (m *Memory) insertLocked(name string) users.User {
	u := users.User{
		ID:        m.nextID,
		Name:      name,
		CreatedAt: m.clock.Now().UTC(),
	}
	m.nextID++

	i, _ := slices.BinarySearchFunc(m.rows, u, users.Compare)
	m.rows = slices.Insert(m.rows, i, u)
	return u
}

// Len returns the number of stored users.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Ping reports whether the store is open.
func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var (
	_ Handle = (*Postgres)(nil)
	_ Handle = (*Memory)(nil)
)
