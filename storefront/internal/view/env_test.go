package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/auth"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/book"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/cart"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/order"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/user"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/testapi"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/transport"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

type env struct {
	api     *testapi.Backend
	clk     *testclock.Clock
	session *session.Store
	q       *query.Client
	h       *hooks.Hooks
}

// newEnv wires the real services against an in-memory backend, logged in
// as userID unless it is empty.
func newEnv(t *testing.T, userID string) *env {
	t.Helper()
	api := testapi.New()
	t.Cleanup(api.Close)

	log := zap.NewNop()
	clk := testclock.NewClock(time.Now())
	sess := session.NewStore(log, session.NewMemoryPersister(), clk)
	if userID != "" {
		u := api.User(userID)
		require.NoError(t, sess.SetLogin(context.Background(), model.Session{
			Token:    testapi.Token(userID),
			UserID:   userID,
			UserName: u.UserName,
			UserRole: u.UserRole,
		}))
	}
	client := transport.New(log, config.API{BaseURL: api.URL(), Timeout: 5 * time.Second}, sess)
	q := query.NewClient(log, query.WithClock(clk))
	return &env{
		api:     api,
		clk:     clk,
		session: sess,
		q:       q,
		h: hooks.New(hooks.Deps{
			Log:     log,
			Query:   q,
			Session: sess,
			Auth:    auth.NewService(log, client),
			Book:    book.NewService(log, client),
			Cart:    cart.NewService(log, client),
			Order:   order.NewService(log, client),
			User:    user.NewService(log, client),
		}),
	}
}

func (e *env) checkout(confirm view.Confirmer) *view.Checkout {
	return view.NewCheckout(zap.NewNop(), e.h.Orders, e.h.Users, confirm)
}

// countInvalidations drains ch and counts invalidations of exactly key.
func countInvalidations(ch <-chan query.Event, key ...query.Key) int {
	n := 0
	for {
		select {
		case ev := <-ch:
			if ev.Kind != query.EventInvalidated {
				continue
			}
			if len(key) == 0 || ev.Key.Equal(key[0]) {
				n++
			}
		default:
			return n
		}
	}
}
