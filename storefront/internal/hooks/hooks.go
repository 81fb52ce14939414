package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

type Deps struct {
	Log     *zap.Logger
	Query   *query.Client
	Session SessionStore
	Auth    AuthService
	Book    BookService
	Cart    CartService
	Order   OrderService
	User    UserService
}

type Hooks struct {
	Auth   *Auth
	Books  *Books
	Cart   *Cart
	Orders *Orders
	Users  *Users
	Query  *query.Client
}

func New(d Deps) *Hooks {
	log := d.Log.Named("hooks")
	g := guard{session: d.Session}
	return &Hooks{
		Auth:   &Auth{log: log, q: d.Query, session: d.Session, svc: d.Auth},
		Books:  &Books{log: log, q: d.Query, guard: g, svc: d.Book},
		Cart:   &Cart{log: log, q: d.Query, guard: g, svc: d.Cart},
		Orders: &Orders{log: log, q: d.Query, guard: g, svc: d.Order},
		Users:  &Users{log: log, q: d.Query, guard: g, svc: d.User},
		Query:  d.Query,
	}
}

// guard checks the local role before admin or member operations. The
// backend remains the authority.
type guard struct {
	session SessionStore
}

func (g guard) member() error {
	if g.session == nil || !g.session.IsAuthenticated() {
		return errs.ErrNotAuthenticated
	}
	return nil
}

func (g guard) admin() error {
	if err := g.member(); err != nil {
		return err
	}
	if !g.session.IsAdmin() {
		return errs.ErrNotAdmin
	}
	return nil
}

func invalidate(q *query.Client, keys ...query.Key) {
	for _, k := range keys {
		q.Invalidate(k)
	}
}

func mutate[In, Out any](ctx context.Context, log *zap.Logger, op string, m query.Mutation[In, Out], in In) (Out, error) {
	m.OnError = func(_ context.Context, err error, _ In) {
		log.Error(op, zap.Error(err))
	}
	return m.Run(ctx, in)
}
