package hooks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"

	service_mocks "github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks/mocks"
)

type fixture struct {
	q       *query.Client
	session *service_mocks.MockSessionStore
	auth    *service_mocks.MockAuthService
	book    *service_mocks.MockBookService
	cart    *service_mocks.MockCartService
	order   *service_mocks.MockOrderService
	user    *service_mocks.MockUserService
	hooks   *hooks.Hooks
}

func newFixture(t *testing.T, role model.Role) *fixture {
	t.Helper()
	c := gomock.NewController(t)
	f := &fixture{
		q:       query.NewClient(zap.NewNop(), query.WithClock(testclock.NewClock(time.Now()))),
		session: service_mocks.NewMockSessionStore(c),
		auth:    service_mocks.NewMockAuthService(c),
		book:    service_mocks.NewMockBookService(c),
		cart:    service_mocks.NewMockCartService(c),
		order:   service_mocks.NewMockOrderService(c),
		user:    service_mocks.NewMockUserService(c),
	}
	f.session.EXPECT().IsAuthenticated().Return(role != "").AnyTimes()
	f.session.EXPECT().IsAdmin().Return(role == model.RoleAdmin).AnyTimes()
	f.hooks = hooks.New(hooks.Deps{
		Log:     zap.NewNop(),
		Query:   f.q,
		Session: f.session,
		Auth:    f.auth,
		Book:    f.book,
		Cart:    f.cart,
		Order:   f.order,
		User:    f.user,
	})
	return f
}

// countEvents drains events for prefix and returns how many arrived.
func countEvents(ch <-chan query.Event) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestBooks_DeleteRemovesAndInvalidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleAdmin)
	ctx := context.Background()

	f.book.EXPECT().List(gomock.Any(), 0, 8).Return([]model.Book{{BookID: 41}, {BookID: 42}}, nil)
	f.book.EXPECT().Get(gomock.Any(), int64(42)).Return(model.Book{BookID: 42}, nil)
	f.book.EXPECT().Delete(gomock.Any(), int64(42)).Return("deleted", nil)
	f.book.EXPECT().List(gomock.Any(), 0, 8).Return([]model.Book{{BookID: 41}}, nil)

	_, err := f.hooks.Books.List(ctx, 0, 8)
	require.NoError(t, err)
	_, err = f.hooks.Books.Get(ctx, 42)
	require.NoError(t, err)

	msg, err := f.hooks.Books.Delete(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "deleted", msg)

	_, ok := query.GetData[model.Book](f.q, hooks.BookKey(42))
	require.False(t, ok)
	require.True(t, f.q.IsStale(hooks.BookListKey(0, 8)))

	books, err := f.hooks.Books.List(ctx, 0, 8)
	require.NoError(t, err)
	require.Equal(t, []model.Book{{BookID: 41}}, books)
}

func TestBooks_AdminGuard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		role model.Role
		want error
	}{
		{name: "user", role: model.RoleUser, want: errs.ErrNotAdmin},
		{name: "anonymous", role: "", want: errs.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.role)
			ctx := context.Background()
			_, err := f.hooks.Books.Create(ctx, model.BookForm{Title: "x"})
			require.ErrorIs(t, err, tt.want)
			_, err = f.hooks.Books.Delete(ctx, 1)
			require.ErrorIs(t, err, tt.want)
			err = f.hooks.Users.UpdatePoint(ctx, "u1", 1)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBooks_CreateUpdateInvalidate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleAdmin)
	ctx := context.Background()
	events, cancel := f.q.Subscribe(hooks.BooksKey())
	defer cancel()

	form := model.BookForm{Title: "Go", AuthorName: "Pike", Price: 100, Stock: 1}
	f.book.EXPECT().Create(gomock.Any(), form).Return(model.Book{BookID: 9}, nil)
	f.book.EXPECT().Update(gomock.Any(), int64(9), form).Return(model.Book{BookID: 9}, nil)

	_, err := f.hooks.Books.Create(ctx, form)
	require.NoError(t, err)
	_, err = f.hooks.Books.Update(ctx, 9, form)
	require.NoError(t, err)
	require.Equal(t, 2, countEvents(events))
}

func TestBooks_SearchBlankSkipsBackend(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	books, err := f.hooks.Books.Search(context.Background(), "  ")
	require.NoError(t, err)
	require.Empty(t, books)
}

func TestUsers_UpdatePointsInvalidatesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleAdmin)
	ctx := context.Background()
	events, cancel := f.q.Subscribe(hooks.UsersKey())
	defer cancel()

	f.user.EXPECT().UpdatePoint(gomock.Any(), "u1", int64(100)).Return(nil)
	f.user.EXPECT().UpdatePoint(gomock.Any(), "u2", int64(200)).Return(nil)

	err := f.hooks.Users.UpdatePoints(ctx, []model.PointUpdate{
		{UserID: "u1", Point: 100},
		{UserID: "u2", Point: 200},
	})
	require.NoError(t, err)
	require.Equal(t, 1, countEvents(events))
}

func TestUsers_UpdatePointsPartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleAdmin)
	events, cancel := f.q.Subscribe(hooks.UsersKey())
	defer cancel()

	boom := errors.New("boom")
	f.user.EXPECT().UpdatePoint(gomock.Any(), "u1", int64(100)).Return(nil)
	f.user.EXPECT().UpdatePoint(gomock.Any(), "u2", int64(200)).Return(boom)

	err := f.hooks.Users.UpdatePoints(context.Background(), []model.PointUpdate{
		{UserID: "u1", Point: 100},
		{UserID: "u2", Point: 200},
	})
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "user u2")
	require.Equal(t, 1, countEvents(events))
}

func TestUsers_UpdateMe(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleUser)
	ctx := context.Background()
	in := model.User{UserID: "u1", UserName: "Kim Jr"}
	f.user.EXPECT().Update(gomock.Any(), in).Return(in, nil)

	out, err := f.hooks.Users.UpdateMe(ctx, in)
	require.NoError(t, err)
	require.Equal(t, in, out)

	me, err := f.hooks.Users.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "Kim Jr", me.UserName)
}

func TestUsers_UpdateMeRefetchesWithoutProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleUser)
	ctx := context.Background()
	events, cancel := f.q.Subscribe(hooks.MeKey())
	defer cancel()

	in := model.User{UserName: "Kim2"}
	f.user.EXPECT().Update(gomock.Any(), in).Return(model.User{}, nil)
	f.user.EXPECT().Detail(gomock.Any()).Return(model.User{UserID: "u1", UserName: "Kim2", Point: 1000}, nil)

	out, err := f.hooks.Users.UpdateMe(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "u1", out.UserID)
	require.EqualValues(t, 1000, out.Point)
	require.Positive(t, countEvents(events))

	cached, ok := query.GetData[model.User](f.q, hooks.MeKey())
	require.True(t, ok)
	require.Equal(t, out, cached)
}

func TestOrders_CheckoutInvalidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleUser)
	ctx := context.Background()

	f.cart.EXPECT().Get(gomock.Any()).Return([]model.CartItem{{ItemID: 1}}, nil)
	f.order.EXPECT().Mine(gomock.Any()).Return([]model.Order{}, nil)
	f.user.EXPECT().Detail(gomock.Any()).Return(model.User{UserID: "u1", Point: 1000}, nil)
	_, err := f.hooks.Cart.Get(ctx)
	require.NoError(t, err)
	_, err = f.hooks.Orders.Mine(ctx)
	require.NoError(t, err)
	_, err = f.hooks.Users.Me(ctx)
	require.NoError(t, err)

	req := model.CheckoutRequest{BookID: 3, Quantity: 1, UsedPoint: 100}
	f.order.EXPECT().Checkout(gomock.Any(), req).Return(model.Order{OrderID: 5}, nil)
	o, err := f.hooks.Orders.Checkout(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(5), o.OrderID)

	for _, k := range []query.Key{hooks.CartKey(), hooks.MyOrdersKey(), hooks.MeKey()} {
		require.True(t, f.q.IsStale(k), k.String())
	}
}

func TestCart_MutationsInvalidate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, model.RoleUser)
	ctx := context.Background()
	events, cancel := f.q.Subscribe(hooks.CartKey())
	defer cancel()

	f.cart.EXPECT().Add(gomock.Any(), int64(1), int64(2)).Return(nil)
	f.cart.EXPECT().UpdateQuantity(gomock.Any(), int64(10), int64(3)).Return(nil)
	f.cart.EXPECT().Remove(gomock.Any(), int64(10)).Return(nil)
	f.cart.EXPECT().Remove(gomock.Any(), int64(11)).Return(nil)

	require.NoError(t, f.hooks.Cart.Add(ctx, 1, 2))
	require.NoError(t, f.hooks.Cart.UpdateQuantity(ctx, 10, 3))
	require.NoError(t, f.hooks.Cart.Remove(ctx, 10, false))
	require.Equal(t, 2, countEvents(events))
	require.NoError(t, f.hooks.Cart.Remove(ctx, 11, true))
	require.Equal(t, 1, countEvents(events))
}

func TestCart_RequiresLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	_, err := f.hooks.Cart.Get(context.Background())
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)
}

func TestAuth_LoginClearsCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	query.SetData(f.q, hooks.CartKey(), []model.CartItem{{ItemID: 1}})

	sess := model.Session{Token: "t", UserID: "u1", UserRole: model.RoleUser}
	f.auth.EXPECT().Login(gomock.Any(), "u1", "pw").Return(sess, nil)
	f.session.EXPECT().SetLogin(gomock.Any(), sess).Return(nil)

	got, err := f.hooks.Auth.Login(ctx, model.LoginRequest{UserID: "u1", Passwd: "pw"})
	require.NoError(t, err)
	require.Equal(t, sess, got)
	require.Empty(t, f.q.Keys())

	query.SetData(f.q, hooks.MeKey(), model.User{UserID: "u1"})
	f.session.EXPECT().Logout(gomock.Any()).Return(nil)
	require.NoError(t, f.hooks.Auth.Logout(ctx))
	require.Empty(t, f.q.Keys())
}

func TestAuth_LoginFailureKeepsCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	query.SetData(f.q, hooks.BestKey(), []model.Book{})
	f.auth.EXPECT().Login(gomock.Any(), "u1", "bad").Return(model.Session{}, errs.ErrInvalidCredentials)

	_, err := f.hooks.Auth.Login(context.Background(), model.LoginRequest{UserID: "u1", Passwd: "bad"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	require.Len(t, f.q.Keys(), 1)
}
