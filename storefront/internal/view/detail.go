package view

import (
	"context"
	"sync"
	"time"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const DetailPollInterval = 3 * time.Second

type DetailState struct {
	Book     model.Book `json:"book"`
	Loaded   bool       `json:"loaded"`
	Quantity int64      `json:"quantity"`
	Total    int64      `json:"total"`
	SoldOut  bool       `json:"soldOut"`
	Error    string     `json:"error,omitempty"`
}

// BookDetail is one book page with a quantity stepper.
type BookDetail struct {
	mu       sync.Mutex
	book     model.Book
	loaded   bool
	err      error
	quantity int64

	bookID   int64
	books    BookSource
	cart     CartSource
	checkout *Checkout
}

func NewBookDetail(bookID int64, books BookSource, cart CartSource, checkout *Checkout) *BookDetail {
	return &BookDetail{
		quantity: 1,
		bookID:   bookID,
		books:    books,
		cart:     cart,
		checkout: checkout,
	}
}

func (d *BookDetail) Load(ctx context.Context) (DetailState, error) {
	book, err := d.books.Get(ctx, d.bookID)
	d.update(book, err)
	return d.State(), err
}

// Run polls the book every interval until ctx ends, calling onUpdate
// after each result.
func (d *BookDetail) Run(ctx context.Context, interval time.Duration, onUpdate func(DetailState)) {
	if interval <= 0 {
		interval = DetailPollInterval
	}
	for res := range d.books.Watch(ctx, d.bookID, interval) {
		d.update(res.Data, res.Err)
		if onUpdate != nil {
			onUpdate(d.State())
		}
	}
}

func (d *BookDetail) update(book model.Book, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	if err == nil {
		d.book = book
		d.loaded = true
	}
}

func (d *BookDetail) Increment() DetailState {
	return d.SetQuantity(d.State().Quantity + 1)
}

func (d *BookDetail) Decrement() DetailState {
	return d.SetQuantity(d.State().Quantity - 1)
}

// SetQuantity sets the stepper value, never below 1.
func (d *BookDetail) SetQuantity(n int64) DetailState {
	d.mu.Lock()
	d.quantity = max(n, 1)
	d.mu.Unlock()
	return d.State()
}

// AddToCart adds the stepper quantity to the cart.
func (d *BookDetail) AddToCart(ctx context.Context) error {
	st := d.State()
	if !st.Loaded {
		return errs.ErrNotFound
	}
	if st.SoldOut {
		return errs.ErrSoldOut
	}
	return d.cart.Add(ctx, d.bookID, st.Quantity)
}

// BuyNow orders the stepper quantity through the checkout flow.
func (d *BookDetail) BuyNow(ctx context.Context) (model.Order, error) {
	st := d.State()
	if !st.Loaded {
		return model.Order{}, errs.ErrNotFound
	}
	return d.checkout.BuyNow(ctx, st.Book, st.Quantity)
}

func (d *BookDetail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := DetailState{
		Book:     d.book,
		Loaded:   d.loaded,
		Quantity: d.quantity,
		Total:    d.book.Price * d.quantity,
		SoldOut:  d.loaded && d.book.Stock <= 0,
	}
	if d.err != nil {
		s.Error = d.err.Error()
	}
	return s
}
