package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/pkg/circuit_breaker"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/handler"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/metrics"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/auth"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/book"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/cart"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/order"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/user"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session/sqlstore"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/transport"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

// Storefront is the wired client: session, cache, hooks and page views
// sharing one backend connection.
type Storefront struct {
	Log      *zap.Logger
	Config   config.Config
	Clock    clock.Clock
	Session  *session.Store
	Query    *query.Client
	Hooks    *hooks.Hooks
	Feed     *view.BookFeed
	Cart     *view.Cart
	Checkout *view.Checkout
	Admin    *view.UserAdmin
	MyPage   *view.MyPage
	Metrics  *metrics.Collector
	Registry *prometheus.Registry

	closers []func() error
}

type options struct {
	clock     clock.Clock
	confirmer view.Confirmer
	persister session.Persister
}

type Option func(*options)

func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithConfirmer sets how checkouts are confirmed. The default accepts
// every checkout.
func WithConfirmer(c view.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithPersister overrides the persister chosen by the session driver.
func WithPersister(p session.Persister) Option {
	return func(o *options) { o.persister = p }
}

func New(ctx context.Context, log *zap.Logger, cfg config.Config, opts ...Option) (*Storefront, error) {
	o := options{clock: clock.WallClock, confirmer: view.AutoConfirm}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Storefront{Log: log, Config: cfg, Clock: o.clock}

	p := o.persister
	if p == nil {
		var err error
		if p, err = s.persister(ctx); err != nil {
			return nil, err
		}
	}
	s.Session = session.NewStore(log, p, o.clock)
	if err := s.Session.Load(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.Metrics = metrics.NewCollector()
	s.Registry = prometheus.NewRegistry()
	s.Registry.MustRegister(s.Metrics)

	topts := []transport.Option{transport.WithMetrics(s.Metrics)}
	if cfg.Breaker.Enable {
		topts = append(topts, transport.WithBreaker(circuit_breaker.New(cfg.Breaker, o.clock)))
	}
	client := transport.New(log, cfg.API, s.Session, topts...)

	s.Query = query.NewClient(log,
		query.WithClock(o.clock),
		query.WithMetrics(s.Metrics),
		query.WithDefaults(cacheDefaults(cfg.Cache)...),
	)
	s.Hooks = hooks.New(hooks.Deps{
		Log:     log,
		Query:   s.Query,
		Session: s.Session,
		Auth:    auth.NewService(log, client),
		Book:    book.NewService(log, client),
		Cart:    cart.NewService(log, client),
		Order:   order.NewService(log, client),
		User:    user.NewService(log, client),
	})

	s.Checkout = view.NewCheckout(log, s.Hooks.Orders, s.Hooks.Users, o.confirmer)
	s.Feed = view.NewBookFeed(s.Hooks.Books, o.clock, view.DefaultFeedLimit)
	s.Cart = view.NewCart(log, s.Hooks.Cart, s.Checkout)
	s.Admin = view.NewUserAdmin(s.Hooks.Users, hooks.DefaultPageSize)
	s.MyPage = view.NewMyPage(s.Hooks.Users, s.Hooks.Orders, s.Session)
	s.closers = append(s.closers, func() error {
		s.Feed.Close()
		return nil
	})
	return s, nil
}

func (s *Storefront) persister(ctx context.Context) (session.Persister, error) {
	cfg := s.Config.Session
	switch cfg.Driver {
	case "", config.DriverFile:
		return session.NewFilePersister(cfg.Path), nil
	case config.DriverSQLite, config.DriverPgx:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		p, err := sqlstore.Open(ctx, s.Log, cfg.Driver, dsn)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, p.Close)
		return p, nil
	}
	return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
}

func cacheDefaults(c config.Cache) []query.Option {
	var opts []query.Option
	if c.StaleTime > 0 {
		opts = append(opts, query.WithStaleTime(c.StaleTime))
	}
	if c.GCTime > 0 {
		opts = append(opts, query.WithGCTime(c.GCTime))
	}
	if c.Retry >= 0 {
		opts = append(opts, query.WithRetry(c.Retry))
	}
	return opts
}

func (s *Storefront) Handler() *handler.Handler {
	return handler.New(handler.Deps{
		Log:      s.Log,
		Session:  s.Session,
		Hooks:    s.Hooks,
		Feed:     s.Feed,
		Cart:     s.Cart,
		Checkout: s.Checkout,
		Admin:    s.Admin,
		MyPage:   s.MyPage,
		Metrics:  s.Metrics,
		Gatherer: s.Registry,
	})
}

// Janitor returns a stopped cron that sweeps expired cache entries on spec.
func (s *Storefront) Janitor(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if n := s.Query.Sweep(); n > 0 {
			s.Log.Debug("cache sweep", zap.Int("removed", n))
		}
	}); err != nil {
		return nil, fmt.Errorf("janitor spec %q: %w", spec, err)
	}
	return c, nil
}

func (s *Storefront) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
