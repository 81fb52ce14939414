package view

import (
	"context"
	"time"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

var (
	_ BookSource   = (*hooks.Books)(nil)
	_ CartSource   = (*hooks.Cart)(nil)
	_ OrderSource  = (*hooks.Orders)(nil)
	_ UserSource   = (*hooks.Users)(nil)
	_ ProfileStore = (*hooks.Users)(nil)
)

type BookSource interface {
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
	InvalidateLists()
	Best(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, keyword string) ([]model.Book, error)
	Get(ctx context.Context, bookID int64) (model.Book, error)
	Watch(ctx context.Context, bookID int64, interval time.Duration) <-chan query.Result[model.Book]
}

type CartSource interface {
	Get(ctx context.Context) ([]model.CartItem, error)
	Refetch(ctx context.Context) ([]model.CartItem, error)
	Add(ctx context.Context, bookID, quantity int64) error
	Remove(ctx context.Context, itemID int64, invalidateAfter bool) error
	UpdateQuantity(ctx context.Context, itemID, quantity int64) error
	InvalidateCart()
}

type OrderSource interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (model.Order, error)
	Mine(ctx context.Context) ([]model.Order, error)
}

type UserSource interface {
	List(ctx context.Context, page, size int) (model.UserPage, error)
	UpdatePoints(ctx context.Context, updates []model.PointUpdate) error
	UpdateStatus(ctx context.Context, userID string, st model.StatusUpdate) error
}

type ProfileStore interface {
	Me(ctx context.Context) (model.User, error)
	UpdateMe(ctx context.Context, u model.User) (model.User, error)
}

type RoleSource interface {
	UserRole() model.Role
}
