package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

type Orders struct {
	log   *zap.Logger
	q     *query.Client
	guard guard
	svc   OrderService
}

func (o *Orders) Mine(ctx context.Context) ([]model.Order, error) {
	if err := o.guard.member(); err != nil {
		return nil, err
	}
	return query.Fetch(ctx, o.q, MyOrdersKey(), o.svc.Mine)
}

func (o *Orders) Checkout(ctx context.Context, req model.CheckoutRequest) (model.Order, error) {
	if err := o.guard.member(); err != nil {
		return model.Order{}, err
	}
	return mutate(ctx, o.log, "checkout", query.Mutation[model.CheckoutRequest, model.Order]{
		Fn: o.svc.Checkout,
		OnSuccess: func(context.Context, model.Order, model.CheckoutRequest) {
			invalidate(o.q, CartKey(), OrdersKey(), MeKey())
		},
	}, req)
}
