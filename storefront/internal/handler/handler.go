package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/pkg/validate"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/hooks"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/metrics"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
	_ "github.com/Astemirdum/bookstore-storefront/swagger"

	mw "github.com/Astemirdum/bookstore-storefront/pkg/middleware"
)

type Deps struct {
	Log      *zap.Logger
	Session  SessionStore
	Hooks    *hooks.Hooks
	Feed     *view.BookFeed
	Cart     *view.Cart
	Checkout *view.Checkout
	Admin    *view.UserAdmin
	MyPage   *view.MyPage
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

type Handler struct {
	session  SessionStore
	hooks    *hooks.Hooks
	feed     *view.BookFeed
	cart     *view.Cart
	checkout *view.Checkout
	admin    *view.UserAdmin
	mypage   *view.MyPage
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

func New(d Deps) *Handler {
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		session:  d.Session,
		hooks:    d.Hooks,
		feed:     d.Feed,
		cart:     d.Cart,
		checkout: d.Checkout,
		admin:    d.Admin,
		mypage:   d.MyPage,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		log:      d.Log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", mw.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(mw.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		mw.NewRateLimiter(apiRPS),
	)

	api.POST("/session", h.Login)
	api.GET("/session", h.GetSession)
	api.DELETE("/session", h.Logout)

	api.GET("/books", h.ListBooks)
	api.POST("/books/reload", h.ReloadBooks)
	api.GET("/books/best", h.BestBooks)
	api.GET("/books/search", h.SearchBooks)
	api.GET("/books/:bookId", h.GetBook)
	api.GET("/books/:bookId/watch", h.WatchBook)
	api.POST("/books", h.CreateBook)
	api.PUT("/books/:bookId", h.UpdateBook)
	api.DELETE("/books/:bookId", h.DeleteBook)
	api.POST("/books/:bookId/buy", h.BuyNow)

	api.GET("/cart", h.GetCart)
	api.POST("/cart/items", h.AddCartItem)
	api.PATCH("/cart/items/:itemId", h.UpdateCartItem)
	api.POST("/cart/select/:itemId", h.ToggleSelect)
	api.POST("/cart/select-all", h.ToggleSelectAll)
	api.DELETE("/cart/selected", h.RemoveSelected)
	api.POST("/cart/checkout", h.CartCheckout)

	api.GET("/me", h.GetMe)
	api.PUT("/me", h.UpdateMe)
	api.GET("/orders", h.MyOrders)

	api.GET("/admin/users", h.ListUsers)
	api.PUT("/admin/users/points", h.UpdatePoints)
	api.PATCH("/admin/users/:userId/status", h.UpdateStatus)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError turns a storefront error into an echo error carrying the
// matching status code.
func (h *Handler) httpError(op string, err error) error {
	code := errs.StatusCode(err)
	if code >= http.StatusInternalServerError {
		h.log.Error(op, zap.Error(err))
	} else {
		h.log.Debug(op, zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bindValid(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
