package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

type Cart struct {
	log   *zap.Logger
	q     *query.Client
	guard guard
	svc   CartService
}

func (c *Cart) Get(ctx context.Context) ([]model.CartItem, error) {
	if err := c.guard.member(); err != nil {
		return nil, err
	}
	return query.Fetch(ctx, c.q, CartKey(), c.svc.Get)
}

// Refetch loads the cart ignoring freshness.
func (c *Cart) Refetch(ctx context.Context) ([]model.CartItem, error) {
	if err := c.guard.member(); err != nil {
		return nil, err
	}
	return query.Refetch(ctx, c.q, CartKey(), c.svc.Get)
}

func (c *Cart) Add(ctx context.Context, bookID, quantity int64) error {
	if err := c.guard.member(); err != nil {
		return err
	}
	_, err := mutate(ctx, c.log, "add to cart", query.Mutation[model.AddCartRequest, struct{}]{
		Fn: func(ctx context.Context, in model.AddCartRequest) (struct{}, error) {
			return struct{}{}, c.svc.Add(ctx, in.BookID, in.Quantity)
		},
		OnSuccess: func(context.Context, struct{}, model.AddCartRequest) {
			c.InvalidateCart()
		},
	}, model.AddCartRequest{BookID: bookID, Quantity: quantity})
	return err
}

// Remove deletes one item. invalidateAfter is false while a bulk removal
// is still running so the cart is refetched once at the end.
func (c *Cart) Remove(ctx context.Context, itemID int64, invalidateAfter bool) error {
	if err := c.guard.member(); err != nil {
		return err
	}
	m := query.Mutation[int64, struct{}]{
		Fn: func(ctx context.Context, id int64) (struct{}, error) {
			return struct{}{}, c.svc.Remove(ctx, id)
		},
	}
	if invalidateAfter {
		m.OnSuccess = func(context.Context, struct{}, int64) {
			c.InvalidateCart()
		}
	}
	_, err := mutate(ctx, c.log, "remove from cart", m, itemID)
	return err
}

// InvalidateCart marks the cart stale.
func (c *Cart) InvalidateCart() {
	c.q.Invalidate(CartKey())
}

func (c *Cart) UpdateQuantity(ctx context.Context, itemID, quantity int64) error {
	if err := c.guard.member(); err != nil {
		return err
	}
	_, err := mutate(ctx, c.log, "update quantity", query.Mutation[[2]int64, struct{}]{
		Fn: func(ctx context.Context, in [2]int64) (struct{}, error) {
			return struct{}{}, c.svc.UpdateQuantity(ctx, in[0], in[1])
		},
		OnSuccess: func(context.Context, struct{}, [2]int64) {
			c.InvalidateCart()
		},
	}, [2]int64{itemID, quantity})
	return err
}

