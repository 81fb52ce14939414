package query

import (
	"context"
	"time"
)

type Result[T any] struct {
	Data T
	Err  error
	At   time.Time
}

// Watch keeps key fresh while ctx is alive: it fetches once, refetches
// every interval and immediately on invalidation or update of the key.
// Results are delivered on the returned channel, which is closed after
// ctx ends and the poll timer has been stopped. The key counts as
// observed while the watch runs, so Sweep leaves it alone.
func Watch[T any](ctx context.Context, c *Client, key Key, interval time.Duration, fn QueryFunc[T], opts ...Option) <-chan Result[T] {
	out := make(chan Result[T])
	events, cancel := c.Subscribe(key)
	c.observe(key, opts)

	go func() {
		defer close(out)
		defer c.unobserve(key)
		defer cancel()

		timer := c.clock.NewTimer(interval)
		defer timer.Stop()

		emit := func(v T, err error) bool {
			select {
			case out <- Result[T]{Data: v, Err: err, At: c.clock.Now()}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		v, err := Fetch(ctx, c, key, fn, opts...)
		if ctx.Err() != nil || !emit(v, err) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.Chan():
				v, err := Refetch(ctx, c, key, fn, opts...)
				if ctx.Err() != nil || !emit(v, err) {
					return
				}
				timer.Reset(interval)
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !key.HasPrefix(ev.Key) {
					continue
				}
				var (
					v   T
					err error
				)
				if d, has := GetData[T](c, key); ev.Kind == EventUpdated && has {
					v = d
				} else {
					v, err = Refetch(ctx, c, key, fn, opts...)
				}
				if ctx.Err() != nil || !emit(v, err) {
					return
				}
			}
		}
	}()
	return out
}
