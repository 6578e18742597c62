package pagination

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoadErrorMessage is the user-facing message for any failed fetch.
const LoadErrorMessage = "Failed to load users. Please try again."

// DefaultLookahead is how close (in rows) to the end of the loaded list the
// viewport must reach before the next page is requested.
const DefaultLookahead = 5

// State is the consumer's fetch state.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateLoaded
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateLoaded:
		return "loaded"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PageFetcher retrieves one page of users.
type PageFetcher interface {
	FetchPage(ctx context.Context, req users.PageRequest) (*users.PageResponse, error)
}

// Config holds consumer configuration.
type Config struct {
	// Lookahead in rows before the end that triggers the next fetch.
	Lookahead int

	// FetchTimeout bounds each page fetch.
	FetchTimeout time.Duration

	// Logger defaults to the global logger with component=consumer.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default consumer configuration.
func DefaultConfig() Config {
	return Config{
		Lookahead:    DefaultLookahead,
		FetchTimeout: 15 * time.Second,
	}
}

// Request is the immutable description of one fetch.
type Request struct {
	Filter     string
	Page       int
	Generation uint64
}

// PageRequest converts the fetch into an API page request.
func (r Request) PageRequest() users.PageRequest {
	return users.PageRequest{Page: r.Page, Letter: r.Filter}
}

// Snapshot is a read-only copy of the consumer state.
type Snapshot struct {
	State    State
	Filter   string
	Users    []users.User
	Page     int
	HasMore  bool
	Fetching bool

	// NextPage is the page the next fetch requests: 1 while nothing is
	// loaded, otherwise Page+1.
	NextPage int

	// Error is LoadErrorMessage after a failed fetch, "" otherwise.
	Error string

	seq uint64
}

// Consumer accumulates pages of users for an infinitely scrolling list.
type Consumer struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger

	mu         sync.Mutex
	state      State
	filter     string
	users      []users.User
	page       int
	hasMore    bool
	fetching   bool
	errMsg     string
	generation uint64
	seq        uint64
	listeners  []func(Snapshot)

	// Listener delivery. One goroutine drains pending at a time; snapshots
	// older than the last delivered one are dropped.
	notifyMu  sync.Mutex
	pending   []Snapshot
	draining  bool
	delivered uint64

	wg sync.WaitGroup
}

// NewConsumer creates an idle consumer with no filter.
func NewConsumer(fetcher PageFetcher, config Config) *Consumer {
	if fetcher == nil {
		panic("pagination: fetcher cannot be nil")
	}
	if config.Lookahead <= 0 {
		config.Lookahead = DefaultLookahead
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 15 * time.Second
	}

	logger := log.With().Str("component", "consumer").Logger()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Consumer{
		fetcher: fetcher,
		config:  config,
		logger:  logger,
		hasMore: true,
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// Callbacks run outside the consumer lock, one at a time and in state order.
// A snapshot superseded before it could be delivered is skipped, so a
// listener never sees state older than what it has already seen.
func (c *Consumer) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Start issues the initial page fetch. It returns false if the consumer has
// already left the idle state.
func (c *Consumer) Start(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != StateIdle || c.fetching {
		c.mu.Unlock()
		return false
	}
	req := c.beginLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.launch(ctx, req)
	return true
}

// SetFilter switches the letter filter ("" for none). Accumulated users are
// cleared and page 1 of the new filter is fetched; a fetch for the previous
// filter still in flight is discarded when it completes. Setting the current
// filter again on a started consumer is a no-op.
func (c *Consumer) SetFilter(ctx context.Context, letter string) error {
	if letter != "" {
		normalized, err := users.NormalizeLetter(letter)
		if err != nil {
			return err
		}
		letter = normalized
	}

	c.mu.Lock()
	if letter == c.filter && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.filter = letter
	c.resetLocked()
	req := c.beginLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug().Str("filter", letter).Uint64("generation", req.Generation).Msg("Filter changed")
	c.notify(snap)
	c.launch(ctx, req)
	return nil
}

// Reload discards everything loaded for the current filter and fetches page 1
// again.
func (c *Consumer) Reload(ctx context.Context) {
	c.mu.Lock()
	c.resetLocked()
	req := c.beginLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.launch(ctx, req)
}

// LoadMore fetches the next page unless a fetch is in flight or the list is
// exhausted. It reports whether a fetch was issued.
func (c *Consumer) LoadMore(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == StateIdle || c.fetching || !c.hasMore {
		c.mu.Unlock()
		return false
	}
	req := c.beginLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.launch(ctx, req)
	return true
}

// OnVisibleRange reports the last rendered row index. When it is within
// Lookahead rows of the end of the loaded list, the next page is fetched.
func (c *Consumer) OnVisibleRange(ctx context.Context, lastIndex int) bool {
	c.mu.Lock()
	near := lastIndex >= len(c.users)-c.config.Lookahead
	c.mu.Unlock()

	if !near {
		return false
	}
	return c.LoadMore(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until every launched fetch has completed.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// resetLocked clears accumulated data and supersedes any in-flight fetch.
func (c *Consumer) resetLocked() {
	c.generation++
	c.users = nil
	c.page = 0
	c.hasMore = true
	c.fetching = false
	c.errMsg = ""
}

// beginLocked marks a fetch in flight and returns its request.
func (c *Consumer) beginLocked() Request {
	c.fetching = true
	c.state = StateFetching
	return Request{Filter: c.filter, Page: c.nextPageLocked(), Generation: c.generation}
}

func (c *Consumer) nextPageLocked() int {
	if len(c.users) == 0 {
		return 1
	}
	return c.page + 1
}

func (c *Consumer) launch(ctx context.Context, req Request) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
		defer cancel()

		start := time.Now()
		resp, err := c.fetcher.FetchPage(fetchCtx, req.PageRequest())
		c.complete(req, resp, err, time.Since(start))
	}()
}

func (c *Consumer) complete(req Request, resp *users.PageResponse, err error, took time.Duration) {
	c.mu.Lock()

	if req.Generation != c.generation {
		c.mu.Unlock()
		consumerFetchesTotal.WithLabelValues("stale").Inc()
		c.logger.Debug().
			Str("filter", req.Filter).
			Int("page", req.Page).
			Uint64("generation", req.Generation).
			Msg("Discarding stale page")
		return
	}

	c.fetching = false

	switch {
	case err != nil:
		c.state = StateErrored
		c.errMsg = LoadErrorMessage
		consumerFetchesTotal.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).Str("filter", req.Filter).Int("page", req.Page).Msg("Error fetching users")

	case len(resp.Users) == 0:
		c.state = StateLoaded
		c.errMsg = ""
		c.hasMore = false
		consumerFetchesTotal.WithLabelValues("exhausted").Inc()
		c.logger.Debug().Str("filter", req.Filter).Int("page", req.Page).Msg("All users loaded")

	default:
		c.state = StateLoaded
		c.errMsg = ""
		if req.Page == 1 {
			c.users = slices.Clone(resp.Users)
		} else {
			c.users = append(c.users, resp.Users...)
		}
		c.page = req.Page
		consumerFetchesTotal.WithLabelValues("loaded").Inc()
		c.logger.Debug().
			Str("filter", req.Filter).
			Int("page", req.Page).
			Int("count", len(resp.Users)).
			Int("total", len(c.users)).
			Dur("duration", took).
			Msg("Page loaded")
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Consumer) snapshotLocked() Snapshot {
	c.seq++
	return Snapshot{
		State:    c.state,
		Filter:   c.filter,
		Users:    slices.Clone(c.users),
		Page:     c.page,
		HasMore:  c.hasMore,
		Fetching: c.fetching,
		NextPage: c.nextPageLocked(),
		Error:    c.errMsg,
		seq:      c.seq,
	}
}

// notify queues snap for the listeners. If another goroutine is already
// delivering, it picks snap up and notify returns immediately; this also
// makes it safe for a listener to call back into the consumer.
func (c *Consumer) notify(snap Snapshot) {
	c.notifyMu.Lock()
	c.pending = append(c.pending, snap)
	if c.draining {
		c.notifyMu.Unlock()
		return
	}
	c.draining = true

	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		if next.seq <= c.delivered {
			continue
		}
		c.delivered = next.seq
		c.notifyMu.Unlock()

		c.mu.Lock()
		listeners := slices.Clone(c.listeners)
		c.mu.Unlock()

		for _, fn := range listeners {
			fn(next)
		}

		c.notifyMu.Lock()
	}

	c.draining = false
	c.notifyMu.Unlock()
}
