package query

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/metrics"
)

// QueryFunc loads the data for a key. It receives a context that is not
// cancelled when the caller stops waiting.
type QueryFunc[T any] func(ctx context.Context) (T, error)

type entry struct {
	key     Key
	data    any
	hasData bool
	err     error

	updatedAt time.Time
	lastUsed  time.Time
	opts      Options

	// generation is bumped by every invalidation; dataGen is the
	// generation the stored data was fetched under.
	generation uint64
	dataGen    uint64
	stale      bool

	inFlight  int
	observers int
}

type Stats struct {
	Entries       int    `json:"entries"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Fetches       uint64 `json:"fetches"`
	Invalidations uint64 `json:"invalidations"`
}

// Client is a keyed, de-duplicating query cache.
type Client struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	defaults Options
	stats    Stats

	subMu   sync.Mutex
	subs    map[int]*subscriber
	nextSub int

	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.Collector
}

type ClientOption func(*Client)

func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) { c.clock = clk }
}

func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithDefaults sets the options every query starts from.
func WithDefaults(opts ...Option) ClientOption {
	return func(c *Client) { c.defaults = c.defaults.apply(opts) }
}

func NewClient(log *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		entries: make(map[string]*entry),
		defaults: Options{
			StaleTime: DefaultStaleTime,
			GCTime:    DefaultGCTime,
			Retry:     DefaultRetry,
		},
		subs:  make(map[int]*subscriber),
		clock: clock.WallClock,
		log:   log.Named("query"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Now() time.Time {
	return c.clock.Now()
}

func (c *Client) Clock() clock.Clock {
	return c.clock
}

func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Fetch returns the cached data for key when it is fresh, otherwise runs
// fn. Concurrent fetches of one key share a single call of fn.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn QueryFunc[T], opts ...Option) (T, error) {
	if v, ok := cached[T](c, key, opts); ok {
		return v, nil
	}
	return fetch(ctx, c, key, fn, opts)
}

// Refetch runs fn regardless of freshness, joining a fetch already in flight.
func Refetch[T any](ctx context.Context, c *Client, key Key, fn QueryFunc[T], opts ...Option) (T, error) {
	return fetch(ctx, c, key, fn, opts)
}

// GetData returns the cached data for key without fetching, fresh or not.
func GetData[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key.id()]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := e.data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// IsStale reports whether key has no data or its data is stale.
func (c *Client) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	return !ok || !c.fresh(e)
}

// SetData stores v as fresh data for key and notifies subscribers.
func SetData[T any](c *Client, key Key, v T, opts ...Option) {
	c.mu.Lock()
	e := c.entry(key, opts)
	now := c.clock.Now()
	e.data, e.hasData, e.err = v, true, nil
	e.updatedAt, e.lastUsed = now, now
	e.dataGen = e.generation
	e.stale = false
	c.mu.Unlock()
	c.publish(Event{Kind: EventUpdated, Key: key, Source: SourceLocal})
}

func cached[T any](c *Client, key Key, opts []Option) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key.id()]
	if ok {
		if len(opts) > 0 {
			e.opts = c.defaults.apply(opts)
		}
		e.lastUsed = c.clock.Now()
	}
	if !ok || !c.fresh(e) {
		c.stats.Misses++
		c.metrics.CacheMiss()
		return zero, false
	}
	v, ok := e.data.(T)
	if !ok {
		c.stats.Misses++
		c.metrics.CacheMiss()
		return zero, false
	}
	c.stats.Hits++
	c.metrics.CacheHit()
	return v, true
}

// fresh must be called with mu held.
func (c *Client) fresh(e *entry) bool {
	if !e.hasData || e.stale {
		return false
	}
	return c.clock.Now().Sub(e.updatedAt) < e.opts.StaleTime
}

// entry returns the entry for key, creating it when missing. Options
// replace the entry's options only when given. mu must be held.
func (c *Client) entry(key Key, opts []Option) *entry {
	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, lastUsed: c.clock.Now(), opts: c.defaults}
		c.entries[id] = e
	}
	if len(opts) > 0 {
		e.opts = c.defaults.apply(opts)
	}
	return e
}

func fetch[T any](ctx context.Context, c *Client, key Key, fn QueryFunc[T], opts []Option) (T, error) {
	id := key.id()
	ch := c.group.DoChan(id, func() (any, error) {
		c.mu.Lock()
		e := c.entry(key, opts)
		gen := e.generation
		retry := e.opts.Retry
		e.inFlight++
		c.stats.Fetches++
		c.mu.Unlock()

		runCtx := context.WithoutCancel(ctx)
		var (
			v   T
			err error
		)
		for attempt := 0; attempt <= retry; attempt++ {
			if v, err = fn(runCtx); err == nil {
				break
			}
			c.log.Debug("query failed",
				zap.Stringer("key", key),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
		}
		c.metrics.Fetch(err)
		c.store(id, e, gen, v, err)
		return v, err
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (c *Client) store(id string, e *entry, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.inFlight--
	if c.entries[id] != e {
		// removed while in flight
		return
	}
	now := c.clock.Now()
	e.lastUsed = now
	if err != nil {
		e.err = err
		return
	}
	if e.hasData && gen < e.dataGen {
		return
	}
	e.data, e.hasData, e.err = v, true, nil
	e.updatedAt = now
	e.dataGen = gen
	e.stale = gen != e.generation
}

// Invalidate marks every entry under prefix stale and notifies
// subscribers. A fetch already in flight for such a key still stores its
// result, but stale. It returns the number of entries matched.
func (c *Client) Invalidate(prefix Key) int {
	return c.Apply(Event{Kind: EventInvalidated, Key: prefix, Source: SourceLocal})
}

// Remove drops every entry under prefix.
func (c *Client) Remove(prefix Key) int {
	return c.Apply(Event{Kind: EventRemoved, Key: prefix, Source: SourceLocal})
}

// Clear drops the whole cache.
func (c *Client) Clear() int {
	return c.Remove(Key{})
}

// Apply applies an invalidation or removal event, local or remote.
func (c *Client) Apply(ev Event) int {
	if ev.Source == "" {
		ev.Source = SourceLocal
	}
	c.mu.Lock()
	n := 0
	for id, e := range c.entries {
		if !e.key.HasPrefix(ev.Key) {
			continue
		}
		n++
		switch ev.Kind {
		case EventRemoved:
			delete(c.entries, id)
		default:
			e.generation++
			e.stale = true
		}
		// later callers must not join a fetch that predates this event
		c.group.Forget(id)
	}
	c.stats.Invalidations += uint64(n)
	c.mu.Unlock()

	c.metrics.Invalidated(n)
	c.log.Debug("apply",
		zap.String("kind", ev.Kind.String()),
		zap.Stringer("key", ev.Key),
		zap.String("source", ev.Source),
		zap.Int("matched", n))
	c.publish(ev)
	return n
}

// Sweep removes unobserved entries whose GC time has passed since last
// use and returns how many were removed.
func (c *Client) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	n := 0
	for id, e := range c.entries {
		if e.observers > 0 || e.inFlight > 0 {
			continue
		}
		if now.Sub(e.lastUsed) >= e.opts.GCTime {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Keys lists cached keys in a stable order.
func (c *Client) Keys() []Key {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.key)
	}
	c.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func (c *Client) observe(key Key, opts []Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key, opts)
	e.observers++
	e.lastUsed = c.clock.Now()
}

func (c *Client) unobserve(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || e.observers == 0 {
		return
	}
	e.observers--
	e.lastUsed = c.clock.Now()
}
