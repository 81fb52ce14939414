package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	UserName      string     `json:"userName,omitempty"`
	UserRole      model.Role `json:"userRole,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

func (h *Handler) sessionView() sessionResponse {
	s := h.session.Snapshot()
	resp := sessionResponse{
		Authenticated: h.session.IsAuthenticated(),
		UserID:        s.UserID,
		UserName:      s.UserName,
		UserRole:      s.UserRole,
	}
	if exp := h.session.ExpiresAt(); !exp.IsZero() {
		resp.ExpiresAt = &exp
	}
	return resp
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if _, err := h.hooks.Auth.Login(c.Request().Context(), req); err != nil {
		return h.httpError("login", err)
	}
	return c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) GetSession(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessionView())
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.hooks.Auth.Logout(c.Request().Context()); err != nil {
		return h.httpError("logout", err)
	}
	return c.NoContent(http.StatusNoContent)
}
