package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

func (h *Handler) GetCart(c echo.Context) error {
	st, err := h.cart.Load(c.Request().Context())
	if err != nil {
		return h.httpError("get cart", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) AddCartItem(c echo.Context) error {
	var req model.AddCartRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.hooks.Cart.Add(ctx, req.BookID, req.Quantity); err != nil {
		return h.httpError("add cart item", err)
	}
	st, err := h.cart.Load(ctx)
	if err != nil {
		return h.httpError("add cart item", err)
	}
	return c.JSON(http.StatusOK, st)
}

// quantityRequest sets an absolute quantity or, when Quantity is zero,
// moves it by Delta.
type quantityRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=0"`
	Delta    int64 `json:"delta"`
}

func (h *Handler) UpdateCartItem(c echo.Context) error {
	id, err := paramID(c, "itemId")
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if req.Quantity == 0 && req.Delta == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity or delta required")
	}
	ctx := c.Request().Context()
	if _, err := h.cart.Load(ctx); err != nil {
		return h.httpError("update cart item", err)
	}
	if req.Quantity > 0 {
		_, err = h.cart.SetQuantity(ctx, id, req.Quantity)
	} else {
		_, err = h.cart.ChangeQuantity(ctx, id, req.Delta)
	}
	if err != nil {
		return h.httpError("update cart item", err)
	}
	return c.JSON(http.StatusOK, h.cart.State())
}

func (h *Handler) ToggleSelect(c echo.Context) error {
	id, err := paramID(c, "itemId")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cart.ToggleSelect(id))
}

func (h *Handler) ToggleSelectAll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cart.ToggleSelectAll())
}

func (h *Handler) RemoveSelected(c echo.Context) error {
	st, err := h.cart.RemoveSelected(c.Request().Context())
	if err != nil {
		return h.httpError("remove selected", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) CartCheckout(c echo.Context) error {
	order, err := h.cart.Checkout(c.Request().Context())
	if err != nil {
		return h.httpError("cart checkout", err)
	}
	return c.JSON(http.StatusCreated, order)
}
