package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/normalize"
)

func TestOrders_Aliases(t *testing.T) {
	t.Parallel()
	raw := `[
	  {"orderId":1,"orderDate":"2024-05-01T10:00:00","totalPrice":300,"usedPoint":300,"remainPoint":700,
	   "items":[
	     {"bookTitle":"Go","bookAuthorName":"Pike","bookPriceSnapshot":100,"bookImgPath":"/a.png","quantity":3},
	     {"title":"Rust","authorName":"Klabnik","price":0,"book_price_snapshot":50,"book_img_path":"/b.png"}
	   ]}
	]`
	got := normalize.Orders([]byte(raw))
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].OrderID)
	require.True(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Equal(got[0].OrderDate.Time))
	require.Equal(t, []model.OrderItem{
		{Title: "Go", AuthorName: "Pike", Price: 100, ImgPath: "/a.png", Quantity: 3},
		{Title: "Rust", AuthorName: "Klabnik", Price: 50, ImgPath: "/b.png", Quantity: 1},
	}, got[0].Items)
}

func TestOrders_NotArray(t *testing.T) {
	t.Parallel()
	require.Empty(t, normalize.Orders([]byte(`{"message":"none"}`)))
}

func TestCartItems_NestedBook(t *testing.T) {
	t.Parallel()
	raw := `[
	  {"cartItemId":5,"quantity":2,"book":{"bookId":9,"title":"Go","price":120,"imgPath":"/g.png","author":{"authorName":"Pike"}}},
	  {"itemId":6,"bookId":10,"title":"C","authorName":"K&R","price":80,"imgPath":"/c.png","quantity":null}
	]`
	require.Equal(t, []model.CartItem{
		{ItemID: 5, BookID: 9, Title: "Go", AuthorName: "Pike", Price: 120, Quantity: 2, ImgPath: "/g.png"},
		{ItemID: 6, BookID: 10, Title: "C", AuthorName: "K&R", Price: 80, Quantity: 1, ImgPath: "/c.png"},
	}, normalize.CartItems([]byte(raw)))
}

func TestUserPage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		raw       string
		wantUsers []string
		wantPages int
	}{
		{
			name:      "nested content",
			raw:       `{"content":{"content":[{"userId":"admin"},{"userId":"u1"}]},"totalPages":3}`,
			wantUsers: []string{"admin", "u1"},
			wantPages: 3,
		},
		{
			name:      "flat content",
			raw:       `{"content":[{"userId":"u2"}],"totalPages":1}`,
			wantUsers: []string{"u2"},
			wantPages: 1,
		},
		{
			name:      "missing",
			raw:       `{}`,
			wantPages: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			up, err := normalize.UserPage([]byte(tt.raw), 0, 10)
			require.NoError(t, err)
			ids := make([]string, 0, len(up.Content))
			for _, u := range up.Content {
				ids = append(ids, u.UserID)
			}
			if len(tt.wantUsers) == 0 {
				require.Empty(t, ids)
			} else {
				require.Equal(t, tt.wantUsers, ids)
			}
			require.Equal(t, tt.wantPages, up.TotalPages)
			require.Equal(t, 10, up.Size)
		})
	}
}

func TestSession(t *testing.T) {
	t.Parallel()
	s, ok := normalize.Session([]byte(`{"content":{"token":"t","userId":"u1","userName":"Kim","userRole":"ROLE_USER"}}`))
	require.True(t, ok)
	require.Equal(t, model.Session{Token: "t", UserID: "u1", UserName: "Kim", UserRole: model.RoleUser}, s)

	s, ok = normalize.Session([]byte(`{"response":{"token":"t2","userId":"admin","userRole":"ROLE_ADMIN"}}`))
	require.True(t, ok)
	require.Equal(t, "t2", s.Token)

	_, ok = normalize.Session([]byte(`{"content":{}}`))
	require.False(t, ok)
}

func TestBooks_NonArray(t *testing.T) {
	t.Parallel()
	books, err := normalize.Books([]byte(`{"message":"nothing"}`))
	require.NoError(t, err)
	require.NotNil(t, books)
	require.Empty(t, books)
}

func TestMessage(t *testing.T) {
	t.Parallel()
	require.Equal(t, "deleted", normalize.Message([]byte(`"deleted"`)))
	require.Equal(t, "ok", normalize.Message([]byte(`{"resultMsg":"ok"}`)))
}
