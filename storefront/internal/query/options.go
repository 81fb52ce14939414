package query

import "time"

const (
	DefaultStaleTime = time.Minute
	DefaultGCTime    = time.Minute
	DefaultRetry     = 1
)

type Options struct {
	StaleTime time.Duration
	GCTime    time.Duration
	Retry     int
}

type Option func(*Options)

func WithStaleTime(d time.Duration) Option {
	return func(o *Options) { o.StaleTime = d }
}

func WithGCTime(d time.Duration) Option {
	return func(o *Options) { o.GCTime = d }
}

// WithRetry sets how many times a failed query function is retried.
func WithRetry(n int) Option {
	return func(o *Options) {
		if n < 0 {
			n = 0
		}
		o.Retry = n
	}
}

func (o Options) apply(opts []Option) Options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
