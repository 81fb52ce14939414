// Package testapi is an in-memory bookstore backend speaking the /api/v1
// wire format, used by tests across the storefront.
package testapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const Prefix = "/api/v1"

type account struct {
	passwd string
	user   model.User
}

type cartRow struct {
	itemID   int64
	userID   string
	bookID   int64
	quantity int64
}

type failure struct {
	status int
	msg    string
	times  int
}

type Backend struct {
	mu sync.Mutex

	books      map[int64]model.Book
	nextBookID int64
	accounts   map[string]*account
	cart       []cartRow
	nextItemID int64
	orderViews []orderView
	nextOrder  int64

	hits     map[string]int
	failures map[string]*failure
	gates    map[string]chan struct{}

	profileMessage bool

	echo   *echo.Echo
	server *httptest.Server
}

// New returns a started backend seeded with an admin and one user account.
func New() *Backend {
	b := &Backend{
		books:      make(map[int64]model.Book),
		nextBookID: 1,
		accounts:   make(map[string]*account),
		nextItemID: 1,
		nextOrder:  1,
		hits:       make(map[string]int),
		failures:   make(map[string]*failure),
		gates:      make(map[string]chan struct{}),
	}
	b.AddUser(model.User{UserID: model.AdminUserID, UserName: "Admin", UserRole: model.RoleAdmin, UseYn: "Y", DelYn: "N"}, "admin")
	b.AddUser(model.User{UserID: "u1", UserName: "Kim", Point: 1000, UserRole: model.RoleUser, UseYn: "Y", DelYn: "N"}, "pw1")
	b.echo = b.router()
	b.server = httptest.NewServer(b.echo)
	return b
}

func (b *Backend) Close() {
	b.server.Close()
}

// URL is the API base URL including the /api/v1 prefix.
func (b *Backend) URL() string {
	return b.server.URL + Prefix
}

func (b *Backend) AddUser(u model.User, passwd string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u.CreateDate = model.Date{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b.accounts[u.UserID] = &account{passwd: passwd, user: u}
}

func (b *Backend) User(userID string) model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[userID]; ok {
		return a.user
	}
	return model.User{}
}

func (b *Backend) AddBook(book model.Book) model.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	if book.BookID == 0 {
		book.BookID = b.nextBookID
	}
	if book.BookID >= b.nextBookID {
		b.nextBookID = book.BookID + 1
	}
	if book.CreateDate.IsZero() {
		book.CreateDate = model.Date{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(book.BookID) * time.Hour)}
	}
	b.books[book.BookID] = book
	return book
}

// SeedBooks adds n books with ids 1..n, price 100 and stock 10.
func (b *Backend) SeedBooks(n int) {
	for i := 1; i <= n; i++ {
		b.AddBook(model.Book{
			BookID:     int64(i),
			Title:      fmt.Sprintf("Book %d", i),
			AuthorName: fmt.Sprintf("Author %d", i),
			Price:      100,
			Stock:      10,
			ImgPath:    fmt.Sprintf("/img/%d.png", i),
		})
	}
}

func (b *Backend) Book(id int64) (model.Book, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	book, ok := b.books[id]
	return book, ok
}

func (b *Backend) SetStock(id, stock int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	book := b.books[id]
	book.Stock = stock
	b.books[id] = book
}

// Hits counts requests by route, for example "GET /book/:bookId".
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

func (b *Backend) ResetHits() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits = make(map[string]int)
}

// Fail makes the next `times` requests to route answer with status and a
// {"message": msg} body. times <= 0 fails until Recover.
func (b *Backend) Fail(route string, status int, msg string, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = &failure{status: status, msg: msg, times: times}
}

func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, route)
}

// Gate blocks requests to route until the returned function is called.
func (b *Backend) Gate(route string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[route] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, route)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Token is the bearer token the backend issues for a user.
func Token(userID string) string {
	return "token-" + userID
}

func envelope(v any) map[string]any {
	return map[string]any{"response": v}
}

func message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

func (b *Backend) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group(Prefix, b.track)
	api.POST("/login", b.login)

	api.GET("/book/list", b.listBooks)
	api.GET("/book/best", b.bestBooks)
	api.GET("/book/search", b.searchBooks)
	api.GET("/book/:bookId", b.getBook)
	api.POST("/book", b.createBook, b.auth, b.admin)
	api.PUT("/book/:bookId", b.updateBook, b.auth, b.admin)
	api.DELETE("/book/:bookId", b.deleteBook, b.auth, b.admin)

	api.GET("/cart", b.getCart, b.auth)
	api.POST("/cart", b.addCart, b.auth)
	api.DELETE("/cart/:itemId", b.removeCart, b.auth)
	api.PATCH("/cart/:itemId", b.qtyCart, b.auth)

	api.POST("/order", b.checkout, b.auth)
	api.GET("/order/me", b.myOrders, b.auth)

	api.GET("/admin/users", b.listUsers, b.auth, b.admin)
	api.PUT("/admin/users/:userId/point", b.updatePoint, b.auth, b.admin)
	api.PATCH("/admin/users/:userId", b.updateStatus, b.auth, b.admin)

	api.GET("/users/me", b.me, b.auth)
	api.PUT("/users/me", b.updateMe, b.auth)
	return e
}

func (b *Backend) track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Request().Method + " " + strings.TrimPrefix(c.Path(), Prefix)
		b.mu.Lock()
		b.hits[route]++
		gate := b.gates[route]
		f := b.failures[route]
		if f != nil && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(b.failures, route)
			}
		}
		b.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		if f != nil {
			return c.JSON(f.status, message(f.msg))
		}
		return next(c)
	}
}

const ctxUser = "user"

func (b *Backend) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		userID := strings.TrimPrefix(token, "token-")
		b.mu.Lock()
		a, ok := b.accounts[userID]
		b.mu.Unlock()
		if token == "" || !ok {
			return c.JSON(http.StatusUnauthorized, message("unauthorized"))
		}
		c.Set(ctxUser, a.user.UserID)
		return next(c)
	}
}

func (b *Backend) admin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		b.mu.Lock()
		a := b.accounts[c.Get(ctxUser).(string)]
		b.mu.Unlock()
		if a.user.UserRole != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, message("forbidden"))
		}
		return next(c)
	}
}

func (b *Backend) login(c echo.Context) error {
	userID, passwd := c.FormValue("userId"), c.FormValue("passwd")
	if userID == "" || passwd == "" {
		return c.JSON(http.StatusBadRequest, message("userId and passwd are required"))
	}
	b.mu.Lock()
	a, ok := b.accounts[userID]
	b.mu.Unlock()
	if !ok || a.passwd != passwd {
		return c.JSON(http.StatusUnauthorized, message("아이디 또는 패스워드가 일치하지 않습니다"))
	}
	return c.JSON(http.StatusOK, map[string]any{"content": model.Session{
		Token:    Token(userID),
		UserID:   userID,
		UserName: a.user.UserName,
		UserRole: a.user.UserRole,
	}})
}

func (b *Backend) sortedBooks() []model.Book {
	books := make([]model.Book, 0, len(b.books))
	for _, book := range b.books {
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].BookID < books[j].BookID })
	return books
}

func (b *Backend) listBooks(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 12
	}
	b.mu.Lock()
	books := b.sortedBooks()
	b.mu.Unlock()
	if offset > len(books) {
		offset = len(books)
	}
	end := offset + limit
	if end > len(books) {
		end = len(books)
	}
	return c.JSON(http.StatusOK, envelope(books[offset:end]))
}

func (b *Backend) bestBooks(c echo.Context) error {
	b.mu.Lock()
	books := b.sortedBooks()
	b.mu.Unlock()
	sort.SliceStable(books, func(i, j int) bool { return books[i].Stock < books[j].Stock })
	return c.JSON(http.StatusOK, envelope(books))
}

func (b *Backend) searchBooks(c echo.Context) error {
	kw := strings.ToLower(c.QueryParam("keyword"))
	b.mu.Lock()
	books := b.sortedBooks()
	b.mu.Unlock()
	found := make([]model.Book, 0)
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), kw) || strings.Contains(strings.ToLower(book.AuthorName), kw) {
			found = append(found, book)
		}
	}
	return c.JSON(http.StatusOK, envelope(found))
}

func paramID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func (b *Backend) getBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("bad book id"))
	}
	book, ok := b.Book(id)
	if !ok {
		return c.JSON(http.StatusNotFound, message("book not found"))
	}
	return c.JSON(http.StatusOK, envelope(book))
}

func bookFromForm(c echo.Context, book model.Book) (model.Book, error) {
	if v := c.FormValue("title"); v != "" {
		book.Title = v
	}
	if v := c.FormValue("authorName"); v != "" {
		book.AuthorName = v
	}
	for _, f := range []struct {
		name string
		dst  *int64
	}{{"price", &book.Price}, {"stock", &book.Stock}} {
		if v := c.FormValue(f.name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return book, err
			}
			*f.dst = n
		}
	}
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File["files"]; len(files) > 0 {
			book.ImgPath = "/upload/" + files[0].Filename
		}
	}
	return book, nil
}

func (b *Backend) createBook(c echo.Context) error {
	book, err := bookFromForm(c, model.Book{})
	if err != nil || book.Title == "" {
		return c.JSON(http.StatusBadRequest, message("invalid book"))
	}
	return c.JSON(http.StatusOK, envelope(b.AddBook(book)))
}

func (b *Backend) updateBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("bad book id"))
	}
	book, ok := b.Book(id)
	if !ok {
		return c.JSON(http.StatusNotFound, message("book not found"))
	}
	book, err = bookFromForm(c, book)
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("invalid book"))
	}
	return c.JSON(http.StatusOK, envelope(b.AddBook(book)))
}

func (b *Backend) deleteBook(c echo.Context) error {
	id, err := paramID(c, "bookId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("bad book id"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.books[id]; !ok {
		return c.JSON(http.StatusNotFound, message("book not found"))
	}
	delete(b.books, id)
	return c.JSON(http.StatusOK, envelope("deleted"))
}

// cartView renders the nested book shape some backend versions return.
func (b *Backend) cartView(userID string) []map[string]any {
	items := make([]map[string]any, 0)
	for _, row := range b.cart {
		if row.userID != userID {
			continue
		}
		book := b.books[row.bookID]
		items = append(items, map[string]any{
			"cartItemId": row.itemID,
			"quantity":   row.quantity,
			"book": map[string]any{
				"bookId":  book.BookID,
				"title":   book.Title,
				"price":   book.Price,
				"imgPath": book.ImgPath,
				"author":  map[string]any{"authorName": book.AuthorName},
			},
		})
	}
	return items
}

func (b *Backend) getCart(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return c.JSON(http.StatusOK, envelope(b.cartView(c.Get(ctxUser).(string))))
}

func (b *Backend) addCart(c echo.Context) error {
	var req model.AddCartRequest
	if err := c.Bind(&req); err != nil || req.BookID == 0 || req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, message("invalid cart item"))
	}
	userID := c.Get(ctxUser).(string)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.books[req.BookID]; !ok {
		return c.JSON(http.StatusNotFound, message("book not found"))
	}
	for i := range b.cart {
		if b.cart[i].userID == userID && b.cart[i].bookID == req.BookID {
			b.cart[i].quantity += req.Quantity
			return c.JSON(http.StatusOK, envelope("ok"))
		}
	}
	b.cart = append(b.cart, cartRow{itemID: b.nextItemID, userID: userID, bookID: req.BookID, quantity: req.Quantity})
	b.nextItemID++
	return c.JSON(http.StatusOK, envelope("ok"))
}

func (b *Backend) removeCart(c echo.Context) error {
	id, err := paramID(c, "itemId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("bad item id"))
	}
	userID := c.Get(ctxUser).(string)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, row := range b.cart {
		if row.itemID == id && row.userID == userID {
			b.cart = append(b.cart[:i], b.cart[i+1:]...)
			return c.JSON(http.StatusOK, envelope("ok"))
		}
	}
	return c.JSON(http.StatusNotFound, message("item not found"))
}

func (b *Backend) qtyCart(c echo.Context) error {
	id, err := paramID(c, "itemId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, message("bad item id"))
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, message("invalid quantity"))
	}
	userID := c.Get(ctxUser).(string)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.cart {
		if b.cart[i].itemID == id && b.cart[i].userID == userID {
			b.cart[i].quantity = req.Quantity
			return c.JSON(http.StatusOK, envelope("ok"))
		}
	}
	return c.JSON(http.StatusNotFound, message("item not found"))
}

type orderLine struct {
	book     model.Book
	quantity int64
}

func (b *Backend) checkout(c echo.Context) error {
	var req struct {
		ItemIDs   []int64 `json:"itemIds"`
		BookID    *int64  `json:"bookId"`
		Quantity  int64   `json:"quantity"`
		UsedPoint int64   `json:"usedPoint"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, message("invalid order"))
	}
	userID := c.Get(ctxUser).(string)

	b.mu.Lock()
	defer b.mu.Unlock()
	var lines []orderLine
	if req.BookID != nil {
		book, ok := b.books[*req.BookID]
		if !ok {
			return c.JSON(http.StatusNotFound, message("book not found"))
		}
		lines = append(lines, orderLine{book: book, quantity: req.Quantity})
	}
	for _, id := range req.ItemIDs {
		for _, row := range b.cart {
			if row.itemID == id && row.userID == userID {
				lines = append(lines, orderLine{book: b.books[row.bookID], quantity: row.quantity})
			}
		}
	}
	if len(lines) == 0 {
		return c.JSON(http.StatusBadRequest, message("nothing to order"))
	}
	var total int64
	for _, l := range lines {
		if l.quantity < 1 || b.books[l.book.BookID].Stock < l.quantity {
			return c.JSON(http.StatusBadRequest, message("재고가 부족합니다"))
		}
		total += l.book.Price * l.quantity
	}
	acc := b.accounts[userID]
	if acc.user.Point < total {
		return c.JSON(http.StatusBadRequest, message("포인트가 부족합니다"))
	}
	acc.user.Point -= total
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		book := b.books[l.book.BookID]
		book.Stock -= l.quantity
		b.books[book.BookID] = book
		items = append(items, map[string]any{
			"bookTitle":         book.Title,
			"bookAuthorName":    book.AuthorName,
			"bookPriceSnapshot": book.Price,
			"bookImgPath":       book.ImgPath,
			"quantity":          l.quantity,
		})
	}
	kept := b.cart[:0]
	for _, row := range b.cart {
		if !containsID(req.ItemIDs, row.itemID) || row.userID != userID {
			kept = append(kept, row)
		}
	}
	b.cart = kept

	o := map[string]any{
		"orderId":     b.nextOrder,
		"orderDate":   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(b.nextOrder) * time.Minute).Format("2006-01-02T15:04:05"),
		"totalPrice":  total,
		"usedPoint":   total,
		"remainPoint": acc.user.Point,
		"items":       items,
	}
	b.nextOrder++
	b.orderViews = append(b.orderViews, orderView{userID: userID, body: o})
	return c.JSON(http.StatusOK, envelope(o))
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
