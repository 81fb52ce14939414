package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

func (h *Handler) GetMe(c echo.Context) error {
	st, err := h.mypage.Load(c.Request().Context())
	if err != nil {
		return h.httpError("get me", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	var u model.User
	if err := bindValid(c, &u); err != nil {
		return err
	}
	out, err := h.mypage.Save(c.Request().Context(), u)
	if err != nil {
		return h.httpError("update me", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) MyOrders(c echo.Context) error {
	orders, err := h.hooks.Orders.Mine(c.Request().Context())
	if err != nil {
		return h.httpError("my orders", err)
	}
	return c.JSON(http.StatusOK, view.SortOrders(orders))
}

func (h *Handler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	st, err := h.admin.Load(ctx)
	if err != nil {
		return h.httpError("list users", err)
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		if page != st.Page {
			if st, err = h.admin.GoTo(ctx, page); err != nil {
				return h.httpError("list users", err)
			}
		}
	}
	return c.JSON(http.StatusOK, st)
}

type pointsRequest struct {
	Points []model.PointUpdate `json:"points" validate:"required,min=1,dive"`
}

// UpdatePoints selects the given rows of the current page, applies the
// new point values and saves them together.
func (h *Handler) UpdatePoints(c echo.Context) (err error) {
	var req pointsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.admin.Load(ctx); err != nil {
		return h.httpError("update points", err)
	}
	// each request saves exactly the rows it names
	h.admin.Reset()
	defer func() {
		if err != nil {
			h.admin.Reset()
		}
	}()
	selected := make(map[string]bool)
	for _, up := range req.Points {
		if !selected[up.UserID] {
			if err := h.admin.ToggleSelect(up.UserID); err != nil {
				return h.httpError("update points", err)
			}
			selected[up.UserID] = true
		}
		if err := h.admin.SetPoint(up.UserID, up.Point); err != nil {
			return h.httpError("update points", err)
		}
	}
	st, err := h.admin.SavePoints(ctx)
	if err != nil {
		return h.httpError("update points", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var st model.StatusUpdate
	if err := bindValid(c, &st); err != nil {
		return err
	}
	out, err := h.admin.SetStatus(c.Request().Context(), c.Param("userId"), st)
	if err != nil {
		return h.httpError("update status", err)
	}
	return c.JSON(http.StatusOK, out)
}
