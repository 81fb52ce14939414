package testapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type orderView struct {
	userID string
	body   map[string]any
}

func (b *Backend) myOrders(c echo.Context) error {
	userID := c.Get(ctxUser).(string)
	b.mu.Lock()
	defer b.mu.Unlock()
	orders := make([]map[string]any, 0)
	for _, o := range b.orderViews {
		if o.userID == userID {
			orders = append(orders, o.body)
		}
	}
	return c.JSON(http.StatusOK, envelope(orders))
}

func (b *Backend) sortedUsers() []model.User {
	users := make([]model.User, 0, len(b.accounts))
	for _, a := range b.accounts {
		users = append(users, a.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

func (b *Backend) listUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size <= 0 {
		size = 10
	}
	b.mu.Lock()
	users := b.sortedUsers()
	b.mu.Unlock()
	totalPages := (len(users) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	start := page * size
	if start > len(users) {
		start = len(users)
	}
	end := start + size
	if end > len(users) {
		end = len(users)
	}
	return c.JSON(http.StatusOK, envelope(map[string]any{
		"content": map[string]any{
			"content": users[start:end],
		},
		"totalPages":    totalPages,
		"totalElements": len(users),
	}))
}

func (b *Backend) updatePoint(c echo.Context) error {
	var req struct {
		Point *int64 `json:"point"`
	}
	if err := c.Bind(&req); err != nil || req.Point == nil || *req.Point < 0 {
		return c.JSON(http.StatusBadRequest, message("invalid point"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[c.Param("userId")]
	if !ok {
		return c.JSON(http.StatusNotFound, message("user not found"))
	}
	a.user.Point = *req.Point
	return c.JSON(http.StatusOK, envelope(a.user))
}

func (b *Backend) updateStatus(c echo.Context) error {
	if c.Request().ContentLength > 0 {
		return c.JSON(http.StatusBadRequest, message("body not allowed"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[c.Param("userId")]
	if !ok {
		return c.JSON(http.StatusNotFound, message("user not found"))
	}
	if v := c.QueryParam("useYn"); v != "" {
		a.user.UseYn = v
	}
	if v := c.QueryParam("delYn"); v != "" {
		a.user.DelYn = v
	}
	return c.JSON(http.StatusOK, envelope(a.user))
}

func (b *Backend) me(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(b.accounts[c.Get(ctxUser).(string)].user))
}

func (b *Backend) updateMe(c echo.Context) error {
	var req model.User
	if err := c.Bind(&req); err != nil || req.UserName == "" {
		return c.JSON(http.StatusBadRequest, message("invalid profile"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.accounts[c.Get(ctxUser).(string)]
	a.user.UserName = req.UserName
	a.user.Email = req.Email
	a.user.Phone = req.Phone
	a.user.Addr = req.Addr
	a.user.AddrDetail = req.AddrDetail
	if b.profileMessage {
		return c.JSON(http.StatusOK, envelope("updated"))
	}
	return c.JSON(http.StatusOK, envelope(a.user))
}

// AnswerProfileWithMessage makes PUT /users/me reply with a bare status
// message instead of the updated user.
func (b *Backend) AnswerProfileWithMessage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileMessage = true
}
