package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

// ListBooks returns the loaded feed. more=true loads the next page first;
// an untouched feed loads its first page.
func (h *Handler) ListBooks(c echo.Context) error {
	st := h.feed.State()
	more, _ := strconv.ParseBool(c.QueryParam("more"))
	if more || (st.Offset == 0 && st.HasMore && !st.Loading) {
		var err error
		if st, err = h.feed.LoadMore(c.Request().Context()); err != nil {
			return h.httpError("list books", err)
		}
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ReloadBooks(c echo.Context) error {
	st, err := h.feed.Reload(c.Request().Context())
	if err != nil {
		return h.httpError("reload books", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) BestBooks(c echo.Context) error {
	books, err := view.BestSellers(c.Request().Context(), h.hooks.Books)
	if err != nil {
		return h.httpError("best books", err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) SearchBooks(c echo.Context) error {
	books, err := view.Search(c.Request().Context(), h.hooks.Books, c.QueryParam("keyword"))
	if err != nil {
		return h.httpError("search books", err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return err
	}
	book, err := h.hooks.Books.Get(c.Request().Context(), id)
	if err != nil {
		return h.httpError("get book", err)
	}
	return c.JSON(http.StatusOK, book)
}

// MinWatchInterval is the shortest poll a watch client may ask for.
const MinWatchInterval = time.Second

// WatchBook streams the book as server-sent events, one "book" event per
// poll, until the client goes away.
func (h *Handler) WatchBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return err
	}
	interval := view.DetailPollInterval
	if v := c.QueryParam("interval"); v != "" {
		if interval, err = time.ParseDuration(v); err != nil || interval <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid interval")
		}
		interval = max(interval, MinWatchInterval)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	d := view.NewBookDetail(id, h.hooks.Books, h.hooks.Cart, h.checkout)
	d.Run(c.Request().Context(), interval, func(st view.DetailState) {
		data, err := json.Marshal(st)
		if err != nil {
			return
		}
		_, _ = fmt.Fprintf(w, "event: book\ndata: %s\n\n", data)
		w.Flush()
	})
	return nil
}

func bookForm(c echo.Context) (model.BookForm, error) {
	var form model.BookForm
	form.Title = c.FormValue("title")
	form.AuthorName = c.FormValue("authorName")
	for _, f := range []struct {
		name string
		dst  *int64
	}{{"price", &form.Price}, {"stock", &form.Stock}} {
		v := c.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return form, echo.NewHTTPError(http.StatusBadRequest, "invalid "+f.name)
		}
		*f.dst = n
	}
	if mf, err := c.MultipartForm(); err == nil {
		for _, fh := range mf.File["files"] {
			src, err := fh.Open()
			if err != nil {
				return form, echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			content, err := io.ReadAll(src)
			_ = src.Close()
			if err != nil {
				return form, echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			form.Files = append(form.Files, model.File{Name: fh.Filename, Content: content})
		}
	}
	if err := c.Validate(form); err != nil {
		return form, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return form, nil
}

func (h *Handler) CreateBook(c echo.Context) error {
	form, err := bookForm(c)
	if err != nil {
		return err
	}
	book, err := h.hooks.Books.Create(c.Request().Context(), form)
	if err != nil {
		return h.httpError("create book", err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return err
	}
	form, err := bookForm(c)
	if err != nil {
		return err
	}
	book, err := h.hooks.Books.Update(c.Request().Context(), id, form)
	if err != nil {
		return h.httpError("update book", err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return err
	}
	msg, err := h.hooks.Books.Delete(c.Request().Context(), id)
	if err != nil {
		return h.httpError("delete book", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

type buyRequest struct {
	Quantity int64 `json:"quantity" validate:"gte=1"`
}

func (h *Handler) BuyNow(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return err
	}
	req := buyRequest{Quantity: 1}
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	book, err := h.hooks.Books.Get(ctx, id)
	if err != nil {
		return h.httpError("buy now", err)
	}
	order, err := h.checkout.BuyNow(ctx, book, req.Quantity)
	if err != nil {
		return h.httpError("buy now", err)
	}
	return c.JSON(http.StatusCreated, order)
}
