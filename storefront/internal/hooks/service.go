package hooks

import (
	"context"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/auth"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/book"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/cart"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/order"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/user"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ AuthService  = (*auth.Service)(nil)
	_ BookService  = (*book.Service)(nil)
	_ CartService  = (*cart.Service)(nil)
	_ OrderService = (*order.Service)(nil)
	_ UserService  = (*user.Service)(nil)
	_ SessionStore = (*session.Store)(nil)
)

type AuthService interface {
	Login(ctx context.Context, userID, passwd string) (model.Session, error)
}

type BookService interface {
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
	Best(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, keyword string) ([]model.Book, error)
	Get(ctx context.Context, bookID int64) (model.Book, error)
	Create(ctx context.Context, form model.BookForm) (model.Book, error)
	Update(ctx context.Context, bookID int64, form model.BookForm) (model.Book, error)
	Delete(ctx context.Context, bookID int64) (string, error)
}

type CartService interface {
	Get(ctx context.Context) ([]model.CartItem, error)
	Add(ctx context.Context, bookID, quantity int64) error
	Remove(ctx context.Context, itemID int64) error
	UpdateQuantity(ctx context.Context, itemID, quantity int64) error
}

type OrderService interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (model.Order, error)
	Mine(ctx context.Context) ([]model.Order, error)
}

type UserService interface {
	List(ctx context.Context, page, size int) (model.UserPage, error)
	UpdatePoint(ctx context.Context, userID string, point int64) error
	UpdateStatus(ctx context.Context, userID, useYn, delYn string) error
	Detail(ctx context.Context) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
}

type SessionStore interface {
	SetLogin(ctx context.Context, s model.Session) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool
	IsAdmin() bool
}
