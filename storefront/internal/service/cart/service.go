package cart

import (
	"context"
	"net/http"
	"strconv"

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
		log:    log.Named("cart"),
		client: client,
	}
}

func (s *Service) Get(ctx context.Context) ([]model.CartItem, error) {
	body, err := s.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: "/cart"})
	if err != nil {
		return nil, err
	}
	return normalize.CartItems(transport.Unwrap(body)), nil
}

func (s *Service) Add(ctx context.Context, bookID, quantity int64) error {
	return s.client.Call(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/cart",
		Body:   model.AddCartRequest{BookID: bookID, Quantity: quantity},
	}, nil)
}

func (s *Service) Remove(ctx context.Context, itemID int64) error {
	return s.client.Call(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   itemPath(itemID),
	}, nil)
}

func (s *Service) UpdateQuantity(ctx context.Context, itemID, quantity int64) error {
	return s.client.Call(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   itemPath(itemID),
		Body:   map[string]int64{"quantity": quantity},
	}, nil)
}

// Checkout orders the given cart items.
func (s *Service) Checkout(ctx context.Context, itemIDs []int64) (model.Order, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/order",
		Body:   model.CheckoutRequest{ItemIDs: itemIDs},
	})
	if err != nil {
		return model.Order{}, err
	}
	return normalize.Order(transport.Unwrap(body)), nil
}

func itemPath(itemID int64) string {
	return "/cart/" + strconv.FormatInt(itemID, 10)
}
