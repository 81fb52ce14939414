package order

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/normalize"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/transport"
)

type Service struct {
	log    *zap.Logger
	client *transport.Client
}

func NewService(log *zap.Logger, client *transport.Client) *Service {
	return &Service{
		log:    log.Named("order"),
		client: client,
	}
}

func (s *Service) Checkout(ctx context.Context, req model.CheckoutRequest) (model.Order, error) {
	if req.ItemIDs == nil {
		req.ItemIDs = []int64{}
	}
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/order",
		Body: checkoutBody{
			ItemIDs:   req.ItemIDs,
			BookID:    nullable(req.BookID),
			Quantity:  req.Quantity,
			UsedPoint: req.UsedPoint,
		},
	})
	if err != nil {
		return model.Order{}, err
	}
	return normalize.Order(transport.Unwrap(body)), nil
}

func (s *Service) Mine(ctx context.Context) ([]model.Order, error) {
	body, err := s.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/order/me"})
	if err != nil {
		return nil, err
	}
	return normalize.Orders(transport.Unwrap(body)), nil
}

// checkoutBody always carries all four fields; bookId is null for cart checkout.
type checkoutBody struct {
	ItemIDs   []int64 `json:"itemIds"`
	BookID    *int64  `json:"bookId"`
	Quantity  int64   `json:"quantity"`
	UsedPoint int64   `json:"usedPoint"`
}

func nullable(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
