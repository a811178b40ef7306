package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultStaleTime     = 30 * time.Second
	defaultGCTime        = 5 * time.Minute
	defaultRetry         = 3
	defaultRetryBase     = time.Second
	defaultRetryMaxDelay = 30 * time.Second
)

// FetchFunc loads the data for one key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// StaleTime is how long a successful result is served without refetching.
	// Negative means results are stale as soon as they are stored.
	StaleTime time.Duration
	// GCTime evicts entries nobody has read for this long.
	GCTime time.Duration
	// Retry is the number of extra attempts after a failed fetch. Negative disables.
	Retry int
	// RetryDelay returns the wait before retry attempt n (starting at 0).
	RetryDelay func(attempt int) time.Duration
	// ShouldRetry filters which errors are retried. Nil retries every error.
	ShouldRetry func(error) bool

	Logger *slog.Logger
	Now    func() time.Time
}

// Stats counts cache activity.
type Stats struct {
	Fetches int64 // calls into a FetchFunc, retries included
	Hits    int64 // Fetch calls served from a fresh entry
	Entries int
}

type entry[T any] struct {
	key         Key
	data        T
	updatedAt   time.Time
	lastRead    time.Time
	invalidated bool
}

// Client caches results of type T by Key. It is safe for concurrent use.
type Client[T any] struct {
	mu      sync.Mutex
	entries map[uint64]*entry[T]
	gens    map[string]uint64 // namespace -> Invalidate count
	flights singleflight.Group
	opts    Options

	fetches atomic.Int64
	hits    atomic.Int64
}

// NewClient creates an empty cache.
func NewClient[T any](opts Options) *Client[T] {
	if opts.StaleTime == 0 {
		opts.StaleTime = defaultStaleTime
	}
	if opts.GCTime == 0 {
		opts.GCTime = defaultGCTime
	}
	if opts.Retry == 0 {
		opts.Retry = defaultRetry
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = ExponentialBackoff(defaultRetryBase, defaultRetryMaxDelay)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client[T]{
		entries: make(map[uint64]*entry[T]),
		gens:    make(map[string]uint64),
		opts:    opts,
	}
}

// ExponentialBackoff doubles base for every attempt, capped at maxDelay.
func ExponentialBackoff(base, maxDelay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 0; i < attempt && d < maxDelay; i++ {
			d *= 2
		}
		return min(d, maxDelay)
	}
}

// Peek returns the cached data for key, if any, and whether it is still fresh.
func (c *Client[T]) Peek(key Key) (data T, ok, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key.Hash()]
	if !found {
		return data, false, false
	}
	now := c.opts.Now()
	e.lastRead = now
	return e.data, true, c.isFresh(e, now)
}

// Fetch returns the data for key. A fresh entry is returned without calling
// fn. Otherwise concurrent callers for the same key share one fetch, which
// is retried per Options. Results of cancelled fetches are not stored.
func (c *Client[T]) Fetch(ctx context.Context, key Key, fn FetchFunc[T]) (T, error) {
	if data, ok, fresh := c.Peek(key); ok && fresh {
		c.hits.Add(1)
		return data, nil
	}

	for joined := 0; ; joined++ {
		// Flights are per generation so a caller arriving after Invalidate
		// never joins a request that started before it.
		gen := c.generation(key.Namespace)
		flight := strconv.FormatUint(key.Hash(), 16) + "/" + strconv.FormatUint(gen, 10)
		ch := c.flights.DoChan(flight, func() (any, error) {
			data, err := c.fetchWithRetry(ctx, key, fn)
			if err != nil {
				return data, err
			}
			c.storeGen(key, data, gen)
			return data, nil
		})

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case res := <-ch:
			// A shared flight started by a caller that has since been
			// cancelled carries that caller's error; start our own.
			if res.Err != nil && res.Shared && joined == 0 && ctx.Err() == nil && errors.Is(res.Err, context.Canceled) {
				continue
			}
			data, _ := res.Val.(T)
			return data, res.Err
		}
	}
}

// Prefetch loads key into the cache unless a fresh entry already exists.
func (c *Client[T]) Prefetch(ctx context.Context, key Key, fn FetchFunc[T]) error {
	_, err := c.Fetch(ctx, key, fn)
	return err
}

// Set seeds the cache with data for key as if it had just been fetched.
func (c *Client[T]) Set(key Key, data T) {
	c.storeGen(key, data, c.generation(key.Namespace))
}

func (c *Client[T]) generation(namespace string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[namespace]
}

// Invalidate marks every entry in namespace stale so the next Fetch goes to
// the network. Cached data stays readable through Peek. Returns the number
// of entries marked.
func (c *Client[T]) Invalidate(namespace string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[namespace]++
	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(namespace) {
			e.invalidated = true
			n++
		}
	}
	c.opts.Logger.Debug("query: invalidated", "namespace", namespace, "entries", n)
	return n
}

// Clear drops every entry.
func (c *Client[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*entry[T])
}

// Stats returns activity counters.
func (c *Client[T]) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Fetches: c.fetches.Load(),
		Hits:    c.hits.Load(),
		Entries: n,
	}
}

func (c *Client[T]) isFresh(e *entry[T], now time.Time) bool {
	return !e.invalidated && now.Sub(e.updatedAt) < c.opts.StaleTime
}

// storeGen saves data fetched during generation gen of the key's
// namespace. Data from before the latest Invalidate is stored stale, and
// never replaces data fetched after it.
func (c *Client[T]) storeGen(key Key, data T, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := key.Hash()
	outdated := gen != c.gens[key.Namespace]
	if cur, ok := c.entries[h]; ok && outdated && !cur.invalidated {
		// A newer flight already stored data for this generation.
		return
	}
	now := c.opts.Now()
	c.entries[h] = &entry[T]{
		key:         key,
		data:        data,
		updatedAt:   now,
		lastRead:    now,
		invalidated: outdated,
	}
	c.gcLocked(now)
}

// gcLocked evicts entries unread for longer than GCTime. Caller holds mu.
func (c *Client[T]) gcLocked(now time.Time) {
	for h, e := range c.entries {
		if now.Sub(e.lastRead) > c.opts.GCTime {
			delete(c.entries, h)
		}
	}
}

func (c *Client[T]) fetchWithRetry(ctx context.Context, key Key, fn FetchFunc[T]) (T, error) {
	var (
		data T
		err  error
	)
	for attempt := 0; ; attempt++ {
		c.fetches.Add(1)
		data, err = fn(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return data, ctx.Err()
		}
		if attempt >= c.opts.Retry || (c.opts.ShouldRetry != nil && !c.opts.ShouldRetry(err)) {
			return data, err
		}

		delay := c.opts.RetryDelay(attempt)
		c.opts.Logger.Debug("query: retrying", "key", key.String(), "attempt", attempt+1, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return data, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
