package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type CheckoutStatus string

const (
	CheckoutIdle       CheckoutStatus = "idle"
	CheckoutConfirming CheckoutStatus = "confirming"
	CheckoutSubmitting CheckoutStatus = "submitting"
	CheckoutSucceeded  CheckoutStatus = "succeeded"
)

// Summary is what the buyer is asked to confirm.
type Summary struct {
	Title     string `json:"title"`
	Items     int    `json:"items"`
	Quantity  int64  `json:"quantity"`
	Total     int64  `json:"total"`
	Balance   int64  `json:"balance"`
	Remaining int64  `json:"remaining"`
}

type Confirmer interface {
	Confirm(ctx context.Context, s Summary) (bool, error)
}

type ConfirmFunc func(ctx context.Context, s Summary) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, s Summary) (bool, error) {
	return f(ctx, s)
}

// AutoConfirm accepts every checkout.
var AutoConfirm = ConfirmFunc(func(context.Context, Summary) (bool, error) { return true, nil })

// PromptConfirmer asks on a terminal and accepts "y" or "yes".
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(_ context.Context, s Summary) (bool, error) {
	fmt.Fprintf(p.Out, "%s: %d item(s), quantity %d, total %d points (balance %d, after %d). Proceed? [y/N] ",
		s.Title, s.Items, s.Quantity, s.Total, s.Balance, s.Remaining)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type CheckoutState struct {
	Status    CheckoutStatus `json:"status"`
	LastError string         `json:"lastError,omitempty"`
	Order     *model.Order   `json:"order,omitempty"`
}

// Checkout drives one purchase at a time from confirmation to the order.
type Checkout struct {
	mu      sync.Mutex
	status  CheckoutStatus
	lastErr error
	order   *model.Order

	log     *zap.Logger
	orders  OrderSource
	profile ProfileStore
	confirm Confirmer
}

func NewCheckout(log *zap.Logger, orders OrderSource, profile ProfileStore, confirm Confirmer) *Checkout {
	if confirm == nil {
		confirm = AutoConfirm
	}
	return &Checkout{
		status:  CheckoutIdle,
		log:     log,
		orders:  orders,
		profile: profile,
		confirm: confirm,
	}
}

// BuyNow orders quantity copies of book paid fully in points.
func (c *Checkout) BuyNow(ctx context.Context, book model.Book, quantity int64) (model.Order, error) {
	if book.BookID == 0 {
		return model.Order{}, errs.ErrNoSelection
	}
	if quantity < 1 {
		return model.Order{}, errs.ErrInvalidQuantity
	}
	if book.Stock <= 0 {
		return model.Order{}, errs.ErrSoldOut
	}
	sum := Summary{
		Title:    book.Title,
		Items:    1,
		Quantity: quantity,
		Total:    book.Price * quantity,
	}
	return c.run(ctx, sum, model.CheckoutRequest{
		BookID:    book.BookID,
		Quantity:  quantity,
		UsedPoint: sum.Total,
	})
}

// Cart orders the given cart items paid fully in points.
func (c *Checkout) Cart(ctx context.Context, items []model.CartItem) (model.Order, error) {
	if len(items) == 0 {
		return model.Order{}, errs.ErrNoSelection
	}
	sum := Summary{Title: "cart", Items: len(items)}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return model.Order{}, errs.ErrInvalidQuantity
		}
		ids = append(ids, it.ItemID)
		sum.Quantity += it.Quantity
		sum.Total += it.Subtotal()
	}
	return c.run(ctx, sum, model.CheckoutRequest{ItemIDs: ids, UsedPoint: sum.Total})
}

func (c *Checkout) State() CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := CheckoutState{Status: c.status, Order: c.order}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

func (c *Checkout) run(ctx context.Context, sum Summary, req model.CheckoutRequest) (model.Order, error) {
	if !c.begin() {
		return model.Order{}, errs.ErrCheckoutBusy
	}

	me, err := c.profile.Me(ctx)
	if err != nil {
		return model.Order{}, c.fail(errors.Wrap(err, "load point balance"))
	}
	sum.Balance = me.Point
	sum.Remaining = me.Point - req.UsedPoint
	if req.UsedPoint > me.Point {
		return model.Order{}, c.fail(errs.ErrInsufficientPoints)
	}

	ok, err := c.confirm.Confirm(ctx, sum)
	if err != nil {
		return model.Order{}, c.fail(errors.Wrap(err, "confirm"))
	}
	if !ok {
		return model.Order{}, c.fail(errs.ErrCancelled)
	}

	c.setStatus(CheckoutSubmitting)
	order, err := c.orders.Checkout(ctx, req)
	if err != nil {
		return model.Order{}, c.fail(checkoutError(err))
	}
	if order.OrderID == 0 {
		return model.Order{}, c.fail(fmt.Errorf("%w: no order in response", errs.ErrCheckoutFailed))
	}

	c.mu.Lock()
	c.status = CheckoutSucceeded
	c.lastErr = nil
	c.order = &order
	c.mu.Unlock()
	c.log.Info("checkout done", zap.Int64("orderId", order.OrderID), zap.Int64("usedPoint", order.UsedPoint))
	return order, nil
}

func (c *Checkout) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == CheckoutConfirming || c.status == CheckoutSubmitting {
		return false
	}
	c.status = CheckoutConfirming
	c.lastErr = nil
	c.order = nil
	return true
}

func (c *Checkout) setStatus(s CheckoutStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}

func (c *Checkout) fail(err error) error {
	c.mu.Lock()
	c.status = CheckoutIdle
	c.lastErr = err
	c.mu.Unlock()
	if !errors.Is(err, errs.ErrCancelled) {
		c.log.Warn("checkout failed", zap.Error(err))
	}
	return err
}

// checkoutError keeps guard errors as they are and turns everything else
// into ErrCheckoutFailed carrying the backend message when there is one.
func checkoutError(err error) error {
	switch {
	case errors.Is(err, errs.ErrNotAuthenticated), errors.Is(err, errs.ErrNotAdmin):
		return err
	}
	if apiErr, ok := errs.AsAPIError(err); ok && apiErr.Message != "" {
		return fmt.Errorf("%w: %s", errs.ErrCheckoutFailed, apiErr.Message)
	}
	return fmt.Errorf("%w: %w", errs.ErrCheckoutFailed, err)
}
