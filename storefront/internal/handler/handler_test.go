package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/app"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/handler"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/session"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/testapi"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

type fixture struct {
	api *testapi.Backend
	sf  *app.Storefront
	e   *echo.Echo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := testapi.New()
	t.Cleanup(api.Close)
	cfg := config.Config{API: config.API{BaseURL: api.URL(), Timeout: 5 * time.Second}}
	sf, err := app.New(context.Background(), zap.NewNop(), cfg,
		app.WithClock(testclock.NewClock(time.Now())),
		app.WithPersister(session.NewMemoryPersister()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sf.Close() })
	return &fixture{api: api, sf: sf, e: sf.Handler().NewRouter()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, path, nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	w := httptest.NewRecorder()
	f.e.ServeHTTP(w, r)
	return w
}

func (f *fixture) login(t *testing.T, userID, passwd string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/session", model.LoginRequest{UserID: userID, Passwd: passwd})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/manage/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	f.do(t, http.MethodGet, "/api/books", nil)
	w = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "storefront_")
}

func TestHandler_Session(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name         string
		body         any
		expectedCode int
		expectedBody string
	}{
		{name: "missing passwd", body: map[string]string{"userId": "u1"}, expectedCode: http.StatusBadRequest},
		{name: "wrong passwd", body: model.LoginRequest{UserID: "u1", Passwd: "nope"}, expectedCode: http.StatusUnauthorized, expectedBody: "invalid user id or password"},
		{name: "ok", body: model.LoginRequest{UserID: "u1", Passwd: "pw1"}, expectedCode: http.StatusOK, expectedBody: `"userRole":"ROLE_USER"`},
	}
	for _, tt := range tests {
		w := f.do(t, http.MethodPost, "/api/session", tt.body)
		require.Equal(t, tt.expectedCode, w.Code, tt.name)
		require.Contains(t, w.Body.String(), tt.expectedBody, tt.name)
	}

	w := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"authenticated":true`)
	require.Equal(t, model.RoleUser, f.sf.Session.UserRole())

	w = f.do(t, http.MethodDelete, "/api/session", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.False(t, f.sf.Session.IsAuthenticated())
	require.True(t, f.sf.Session.Snapshot().Empty())

	w = f.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_BookFeed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(13)

	st := decode[view.FeedState](t, f.do(t, http.MethodGet, "/api/books", nil))
	require.Len(t, st.Books, 8)
	require.True(t, st.HasMore)

	st = decode[view.FeedState](t, f.do(t, http.MethodGet, "/api/books", nil))
	require.Len(t, st.Books, 8)

	st = decode[view.FeedState](t, f.do(t, http.MethodGet, "/api/books?more=true", nil))
	require.Len(t, st.Books, 13)
	require.False(t, st.HasMore)
	require.Equal(t, view.EndMessage, st.EndMessage)
	require.Equal(t, 2, f.api.Hits("GET /book/list"))

	st = decode[view.FeedState](t, f.do(t, http.MethodPost, "/api/books/reload", nil))
	require.Len(t, st.Books, 8)
	require.Equal(t, 3, f.api.Hits("GET /book/list"))

	w := f.do(t, http.MethodGet, "/api/books/search?keyword=Book+13", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]model.Book](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/books/best", nil)
	require.Len(t, decode[[]model.Book](t, w), 13)

	w = f.do(t, http.MethodGet, "/api/books/abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, http.MethodGet, "/api/books/99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_DeleteBookDropsIt(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(50)

	w := f.do(t, http.MethodDelete, "/api/books/42", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	f.login(t, "u1", "pw1")
	w = f.do(t, http.MethodDelete, "/api/books/42", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 0, f.api.Hits("DELETE /book/:bookId"))

	f.login(t, model.AdminUserID, "admin")
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/books/42", nil).Code)
	require.Len(t, decode[[]model.Book](t, f.do(t, http.MethodGet, "/api/books/search?keyword=Book+42", nil)), 1)

	books, cancel := f.sf.Query.Subscribe(hooks.BooksKey())
	defer cancel()
	w = f.do(t, http.MethodDelete, "/api/books/42", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var removed, invalidated bool
	for len(books) > 0 {
		ev := <-books
		removed = removed || (ev.Kind == query.EventRemoved && ev.Key.Equal(hooks.BookKey(42)))
		invalidated = invalidated || (ev.Kind == query.EventInvalidated && ev.Key.Equal(hooks.BooksKey()))
	}
	require.True(t, removed)
	require.True(t, invalidated)
	_, cached := query.GetData[model.Book](f.sf.Query, hooks.BookKey(42))
	require.False(t, cached)

	require.Empty(t, decode[[]model.Book](t, f.do(t, http.MethodGet, "/api/books/search?keyword=Book+42", nil)))
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/books/42", nil).Code)
}

func TestHandler_CreateBookMultipart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.login(t, model.AdminUserID, "admin")

	body := &bytes.Buffer{}
	body.WriteString("--b\r\nContent-Disposition: form-data; name=\"title\"\r\n\r\nGo\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"authorName\"\r\n\r\nPike\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"price\"\r\n\r\n300\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"stock\"\r\n\r\n3\r\n" +
		"--b\r\nContent-Disposition: form-data; name=\"files\"; filename=\"cover.png\"\r\nContent-Type: image/png\r\n\r\nPNG\r\n" +
		"--b--\r\n")
	r := httptest.NewRequest(http.MethodPost, "/api/books", body)
	r.Header.Set(echo.HeaderContentType, "multipart/form-data; boundary=b")
	w := httptest.NewRecorder()
	f.e.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	book := decode[model.Book](t, w)
	require.Equal(t, "Go", book.Title)
	stored, ok := f.api.Book(book.BookID)
	require.True(t, ok)
	require.EqualValues(t, 300, stored.Price)
}

func TestHandler_CartFlow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(3)
	f.login(t, "u1", "pw1")

	for _, id := range []int64{1, 2} {
		w := f.do(t, http.MethodPost, "/api/cart/items", model.AddCartRequest{BookID: id, Quantity: 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	st := decode[view.CartState](t, f.do(t, http.MethodGet, "/api/cart", nil))
	require.Len(t, st.Items, 2)
	first := st.Items[0].ItemID

	st = decode[view.CartState](t, f.do(t, http.MethodPatch, "/api/cart/items/"+itoa(first), map[string]int64{"delta": -1}))
	require.EqualValues(t, 1, st.Items[0].Quantity)
	st = decode[view.CartState](t, f.do(t, http.MethodPatch, "/api/cart/items/"+itoa(first), map[string]int64{"quantity": 2}))
	require.EqualValues(t, 2, st.Items[0].Quantity)

	w := f.do(t, http.MethodPost, "/api/cart/checkout", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	st = decode[view.CartState](t, f.do(t, http.MethodPost, "/api/cart/select-all", nil))
	require.True(t, st.AllSelected)
	st = decode[view.CartState](t, f.do(t, http.MethodPost, "/api/cart/select/"+itoa(first), nil))
	require.Equal(t, 1, st.SelectedCount)
	require.False(t, st.AllSelected)

	w = f.do(t, http.MethodPost, "/api/cart/checkout", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[model.Order](t, w)
	require.EqualValues(t, 100, order.TotalPrice)

	st = decode[view.CartState](t, f.do(t, http.MethodGet, "/api/cart", nil))
	require.Len(t, st.Items, 1)
	require.Equal(t, first, st.Items[0].ItemID)

	me := decode[view.MyPageState](t, f.do(t, http.MethodGet, "/api/me", nil))
	require.EqualValues(t, 900, me.User.Point)
	require.Len(t, me.Orders, 1)
}

func TestHandler_BuyNowOverBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(1)
	f.login(t, "u1", "pw1")

	w := f.do(t, http.MethodPost, "/api/books/1/buy", map[string]int64{"quantity": 11})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "not enough points")
	require.Equal(t, 0, f.api.Hits("POST /order"))

	f.api.SetStock(1, 0)
	w = f.do(t, http.MethodGet, "/api/books/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/books/1/buy", map[string]int64{"quantity": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "sold out")

	f.api.SetStock(1, 5)
	w = f.do(t, http.MethodPost, "/api/books/1/buy", map[string]int64{"quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.EqualValues(t, 200, decode[model.Order](t, w).TotalPrice)
	require.Equal(t, 1, f.api.Hits("POST /order"))
}

func TestHandler_AdminPoints(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.AddUser(model.User{UserID: "u2", UserName: "Lee", UserRole: model.RoleUser}, "pw2")
	f.login(t, model.AdminUserID, "admin")

	users, cancel := f.sf.Query.Subscribe(hooks.UsersKey())
	defer cancel()

	w := f.do(t, http.MethodPut, "/api/admin/users/points", map[string]any{
		"points": []model.PointUpdate{{UserID: "u1", Point: 100}, {UserID: "u2", Point: 200}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 2, f.api.Hits("PUT /admin/users/:userId/point"))

	n := 0
	for len(users) > 0 {
		if ev := <-users; ev.Kind == query.EventInvalidated && ev.Key.Equal(hooks.UsersKey()) {
			n++
		}
	}
	require.Equal(t, 1, n)

	st := decode[view.AdminState](t, w)
	points := map[string]int64{}
	for _, row := range st.Users {
		points[row.UserID] = row.Point
	}
	require.Equal(t, map[string]int64{model.AdminUserID: 0, "u1": 100, "u2": 200}, points)

	w = f.do(t, http.MethodPut, "/api/admin/users/points", map[string]any{
		"points": []model.PointUpdate{{UserID: model.AdminUserID, Point: 1}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPatch, "/api/admin/users/u2/status", model.StatusUpdate{UseYn: "N"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "N", f.api.User("u2").UseYn)

	w = f.do(t, http.MethodGet, "/api/admin/users?page=3", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AdminPointsFailureLeavesNoEdits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.AddUser(model.User{UserID: "u2", UserName: "Lee", Point: 7, UserRole: model.RoleUser}, "pw2")
	f.login(t, model.AdminUserID, "admin")

	w := f.do(t, http.MethodPut, "/api/admin/users/points", map[string]any{
		"points": []model.PointUpdate{{UserID: "u1", Point: 100}, {UserID: "ghost", Point: 5}},
	})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	require.Equal(t, 0, f.api.Hits("PUT /admin/users/:userId/point"))

	w = f.do(t, http.MethodPut, "/api/admin/users/points", map[string]any{
		"points": []model.PointUpdate{{UserID: "u2", Point: 50}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 1, f.api.Hits("PUT /admin/users/:userId/point"))
	require.EqualValues(t, 1000, f.api.User("u1").Point)
	require.EqualValues(t, 50, f.api.User("u2").Point)
}

func TestHandler_WatchBookIntervalFloor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(1)
	clk, ok := f.sf.Clock.(*testclock.Clock)
	require.True(t, ok)
	srv := httptest.NewServer(f.e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/books/1/watch?interval=1ns", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sc := bufio.NewScanner(resp.Body)
	nextEvent := func() {
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				return
			}
		}
		t.Fatal("stream ended")
	}
	nextEvent()
	require.Equal(t, 1, f.api.Hits("GET /book/:bookId"))

	require.NoError(t, clk.WaitAdvance(handler.MinWatchInterval/2, time.Second, 1))
	require.Never(t, func() bool { return f.api.Hits("GET /book/:bookId") > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, clk.WaitAdvance(handler.MinWatchInterval/2, time.Second, 1))
	nextEvent()
	require.Equal(t, 2, f.api.Hits("GET /book/:bookId"))
}

func TestHandler_WatchBook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.api.SeedBooks(1)
	srv := httptest.NewServer(f.e)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/books/1/watch", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	sc := bufio.NewScanner(resp.Body)
	var data string
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	var st view.DetailState
	require.NoError(t, json.Unmarshal([]byte(data), &st))
	require.EqualValues(t, 1, st.Book.BookID)
	require.EqualValues(t, 10, st.Book.Stock)
}
