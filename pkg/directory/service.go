package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/user-directory/pkg/cache"
	"github.com/Sternrassler/user-directory/pkg/store"
	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the storage surface the service needs.
type Store interface {
	ListUsers(ctx context.Context, q store.Query) ([]users.User, error)
	CreateUser(ctx context.Context, name string) (users.User, error)
}

// PageCache caches list results. Get returns the cache generation observed
// before the lookup; Set must be called with that generation so a page read
// before a concurrent insert is never served afterwards.
type PageCache interface {
	Get(ctx context.Context, req users.PageRequest) ([]users.User, int64, error)
	Set(ctx context.Context, generation int64, req users.PageRequest, list []users.User) error
	Invalidate(ctx context.Context) error
}

// Config holds optional service dependencies.
type Config struct {
	// Cache is consulted before storage when set.
	Cache PageCache

	// Logger defaults to the global logger with component=directory.
	Logger *zerolog.Logger
}

// Service answers list and create requests against a Store.
type Service struct {
	store  Store
	cache  PageCache
	logger zerolog.Logger
}

// NewService creates a service backed by st.
func NewService(st Store, cfg Config) *Service {
	if st == nil {
		panic("directory: store cannot be nil")
	}

	logger := log.With().Str("component", "directory").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Service{
		store:  st,
		cache:  cfg.Cache,
		logger: logger,
	}
}

// ListUsers returns one page of users. The letter is validated before
// storage is touched; a page past the end yields an empty, non-nil slice.
func (s *Service) ListUsers(ctx context.Context, req users.PageRequest) ([]users.User, error) {
	start := time.Now()
	filter := filterLabel(req.Letter)
	defer func() {
		listDuration.WithLabelValues(filter).Observe(time.Since(start).Seconds())
	}()

	req, err := req.Normalize()
	if err != nil {
		listRequestsTotal.WithLabelValues(filter, "invalid").Inc()
		return nil, err
	}

	generation, cached, ok := s.lookup(ctx, req)
	if ok {
		listRequestsTotal.WithLabelValues(filter, "cached").Inc()
		return cached, nil
	}

	list, err := s.store.ListUsers(ctx, store.QueryFor(req))
	if err != nil {
		listRequestsTotal.WithLabelValues(filter, "error").Inc()
		s.logger.Error().Err(err).Str("request", req.String()).Msg("List query failed")
		return nil, fmt.Errorf("%w: %v", users.ErrStorageUnavailable, err)
	}
	if list == nil {
		list = []users.User{}
	}

	s.fill(ctx, generation, req, list)

	listRequestsTotal.WithLabelValues(filter, "ok").Inc()
	s.logger.Debug().
		Str("request", req.String()).
		Int("count", len(list)).
		Dur("duration", time.Since(start)).
		Msg("Listed users")

	return list, nil
}

// CreateUser validates and stores a new user and invalidates cached pages.
func (s *Service) CreateUser(ctx context.Context, name string) (users.User, error) {
	name, err := users.ValidateName(name)
	if err != nil {
		return users.User{}, err
	}

	u, err := s.store.CreateUser(ctx, name)
	if err != nil {
		s.logger.Error().Err(err).Msg("Create user failed")
		return users.User{}, fmt.Errorf("%w: %v", users.ErrStorageUnavailable, err)
	}
	usersCreatedTotal.Inc()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Page cache invalidation failed")
		}
	}

	s.logger.Info().Int64("id", u.ID).Str("name", u.Name).Msg("User created")
	return u, nil
}

func (s *Service) lookup(ctx context.Context, req users.PageRequest) (int64, []users.User, bool) {
	if s.cache == nil {
		return 0, nil, false
	}

	list, generation, err := s.cache.Get(ctx, req)
	switch {
	case err == nil:
		return generation, list, true
	case errors.Is(err, cache.ErrCacheMiss):
		return generation, nil, false
	case errors.Is(err, cache.ErrInvalidEntry):
		// Overwrite the corrupt entry on fill.
		s.logger.Warn().Err(err).Str("request", req.String()).Msg("Discarding invalid cache entry")
		return generation, nil, false
	default:
		s.logger.Warn().Err(err).Str("request", req.String()).Msg("Page cache lookup failed")
		return -1, nil, false
	}
}

func (s *Service) fill(ctx context.Context, generation int64, req users.PageRequest, list []users.User) {
	// A failed lookup leaves the generation unknown; skip the fill.
	if s.cache == nil || generation < 0 {
		return
	}
	if err := s.cache.Set(ctx, generation, req, list); err != nil {
		s.logger.Warn().Err(err).Str("request", req.String()).Msg("Page cache fill failed")
	}
}
