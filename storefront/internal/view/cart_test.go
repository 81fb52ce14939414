package view_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

// cartWith logs in as u1 and puts one of each book id in the cart.
func cartWith(t *testing.T, bookIDs ...int64) (*env, *view.Cart) {
	t.Helper()
	e := newEnv(t, "u1")
	e.api.SeedBooks(5)
	ctx := context.Background()
	for _, id := range bookIDs {
		require.NoError(t, e.h.Cart.Add(ctx, id, 1))
	}
	c := view.NewCart(zap.NewNop(), e.h.Cart, e.checkout(view.AutoConfirm))
	st, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, st.Items, len(bookIDs))
	return e, c
}

func itemIDs(st view.CartState) []int64 {
	ids := make([]int64, 0, len(st.Items))
	for _, it := range st.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

func TestCart_DecrementStopsAtOne(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1)
	ctx := context.Background()
	id := itemIDs(c.State())[0]

	st, err := c.ChangeQuantity(ctx, id, -1)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Items[0].Quantity)
	require.Equal(t, 0, e.api.Hits("PATCH /cart/:itemId"))

	st, err = c.SetQuantity(ctx, id, -5)
	require.NoError(t, err)
	require.EqualValues(t, 1, st.Items[0].Quantity)

	st, err = c.ChangeQuantity(ctx, id, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, st.Items[0].Quantity)
	require.False(t, st.Items[0].Pending)
	require.Equal(t, 1, e.api.Hits("PATCH /cart/:itemId"))

	st, err = c.Refresh(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, st.Items[0].Quantity)
}

func TestCart_QuantityRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1)
	id := itemIDs(c.State())[0]

	e.api.Fail("PATCH /cart/:itemId", 500, "db down", 1)
	st, err := c.ChangeQuantity(context.Background(), id, 4)
	require.Error(t, err)
	require.EqualValues(t, 1, st.Items[0].Quantity)
	require.False(t, st.Items[0].Pending)
}

func TestCart_NewerChangeIsNotRolledBack(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1)
	ctx := context.Background()
	id := itemIDs(c.State())[0]

	e.api.Fail("PATCH /cart/:itemId", 500, "slow failure", 1)
	release := e.api.Gate("PATCH /cart/:itemId")
	first := make(chan error, 1)
	go func() {
		_, err := c.SetQuantity(ctx, id, 5)
		first <- err
	}()
	require.Eventually(t, func() bool {
		return e.api.Hits("PATCH /cart/:itemId") == 1
	}, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := c.SetQuantity(ctx, id, 7)
		second <- err
	}()
	require.Eventually(t, func() bool {
		return e.api.Hits("PATCH /cart/:itemId") == 2
	}, time.Second, time.Millisecond)
	release()

	require.Error(t, <-first)
	require.NoError(t, <-second)
	st := c.State()
	require.EqualValues(t, 7, st.Items[0].Quantity)
	require.False(t, st.Items[0].Pending)
}

func TestCart_Selection(t *testing.T) {
	t.Parallel()
	_, c := cartWith(t, 1, 2, 3)
	ids := itemIDs(c.State())

	st := c.ToggleSelectAll()
	require.Equal(t, 3, st.SelectedCount)
	require.True(t, st.AllSelected)
	require.EqualValues(t, 300, st.Total)

	st = c.ToggleSelect(ids[1])
	require.Equal(t, 2, st.SelectedCount)
	require.False(t, st.AllSelected)
	require.False(t, c.AllSelected())
	require.EqualValues(t, 200, c.Total())

	st = c.ToggleSelectAll()
	require.Equal(t, 3, st.SelectedCount)
	st = c.ToggleSelectAll()
	require.Zero(t, st.SelectedCount)
	require.Empty(t, c.Selected())
}

func TestCart_LoadKeepsSurvivingSelection(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1, 2)
	ctx := context.Background()
	ids := itemIDs(c.State())
	c.ToggleSelectAll()

	require.NoError(t, e.h.Cart.Remove(ctx, ids[0], true))
	st, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	require.Equal(t, 1, st.SelectedCount)
	require.True(t, st.AllSelected)
}

func TestCart_RemoveSelected(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1, 2, 3)
	ctx := context.Background()

	_, err := c.RemoveSelected(ctx)
	require.ErrorIs(t, err, errs.ErrNoSelection)

	ids := itemIDs(c.State())
	c.ToggleSelect(ids[0])
	c.ToggleSelect(ids[2])
	st, err := c.RemoveSelected(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[1]}, itemIDs(st))
	require.Equal(t, 2, e.api.Hits("DELETE /cart/:itemId"))

	st, err = c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{ids[1]}, itemIDs(st))
}

func TestCart_RemoveSelectedPartialFailure(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1, 2)
	ctx := context.Background()
	ids := itemIDs(c.State())
	c.ToggleSelectAll()

	e.api.Fail("DELETE /cart/:itemId", 500, "locked", 1)
	st, err := c.RemoveSelected(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "locked")
	var apiErr *errs.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, []int64{ids[0]}, itemIDs(st))
	require.Equal(t, 1, st.SelectedCount)
}

func TestCart_Checkout(t *testing.T) {
	t.Parallel()
	e, c := cartWith(t, 1, 2)
	ctx := context.Background()

	_, err := c.Checkout(ctx)
	require.ErrorIs(t, err, errs.ErrNoSelection)
	require.Equal(t, 0, e.api.Hits("POST /order"))

	c.ToggleSelectAll()
	order, err := c.Checkout(ctx)
	require.NoError(t, err)
	require.NotZero(t, order.OrderID)
	require.EqualValues(t, 200, order.TotalPrice)
	require.Len(t, order.Items, 2)
	require.Empty(t, c.State().Items)
	require.EqualValues(t, 800, e.api.User("u1").Point)

	me, err := e.h.Users.Me(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 800, me.Point)
}

func TestCart_RequiresLogin(t *testing.T) {
	t.Parallel()
	e := newEnv(t, "")
	c := view.NewCart(zap.NewNop(), e.h.Cart, e.checkout(view.AutoConfirm))
	_, err := c.Load(context.Background())
	require.ErrorIs(t, err, errs.ErrNotAuthenticated)
	require.Equal(t, 0, e.api.Hits("GET /cart"))
}
