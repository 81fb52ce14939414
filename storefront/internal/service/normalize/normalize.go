// Package normalize turns backend payloads into canonical model shapes.
// The backend is inconsistent about field names across endpoints; every
// alias is resolved here so nothing downstream has to know about them.
package normalize

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

// first returns the first path that exists with a non-null, non-empty value.
func first(v gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		r := v.Get(p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if r.Type == gjson.String && r.Str == "" {
			continue
		}
		return r
	}
	return gjson.Result{}
}

// firstPositive is first for numbers, skipping zeros the way the UI treats
// 0 as missing for snapshot prices.
func firstPositive(v gjson.Result, paths ...string) int64 {
	for _, p := range paths {
		if n := v.Get(p).Int(); n != 0 {
			return n
		}
	}
	return 0
}

func date(r gjson.Result) model.Date {
	if !r.Exists() {
		return model.Date{}
	}
	d, err := model.ParseDate(r.String())
	if err != nil {
		return model.Date{}
	}
	return d
}

func array(raw []byte) []gjson.Result {
	v := gjson.ParseBytes(raw)
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

// Books decodes a list payload; anything that is not an array is empty.
func Books(raw []byte) ([]model.Book, error) {
	items := array(raw)
	books := make([]model.Book, 0, len(items))
	for _, it := range items {
		var b model.Book
		if err := json.Unmarshal([]byte(it.Raw), &b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func Book(raw []byte) (model.Book, error) {
	var b model.Book
	if !gjson.ParseBytes(raw).IsObject() {
		return b, nil
	}
	err := json.Unmarshal(raw, &b)
	return b, err
}

func CartItems(raw []byte) []model.CartItem {
	v := gjson.ParseBytes(raw)
	if v.IsObject() {
		v = first(v, "items", "cartItems")
	}
	if !v.IsArray() {
		return []model.CartItem{}
	}
	items := make([]model.CartItem, 0)
	for _, it := range v.Array() {
		qty := int64(1)
		if q := it.Get("quantity"); q.Exists() && q.Type != gjson.Null {
			qty = q.Int()
		}
		items = append(items, model.CartItem{
			ItemID:     first(it, "itemId", "cartItemId").Int(),
			BookID:     first(it, "bookId", "book.bookId").Int(),
			Title:      first(it, "title", "book.title").String(),
			AuthorName: first(it, "authorName", "book.author.authorName", "book.authorName").String(),
			Price:      first(it, "price", "book.price").Int(),
			Quantity:   qty,
			ImgPath:    first(it, "imgPath", "book.imgPath").String(),
		})
	}
	return items
}

func orderItem(it gjson.Result) model.OrderItem {
	qty := int64(1)
	if q := it.Get("quantity"); q.Exists() && q.Type != gjson.Null {
		qty = q.Int()
	}
	return model.OrderItem{
		Title:      first(it, "title", "bookTitle").String(),
		AuthorName: first(it, "authorName", "bookAuthorName").String(),
		Price:      firstPositive(it, "price", "bookPriceSnapshot", "book_price_snapshot"),
		ImgPath:    first(it, "imgPath", "bookImgPath", "book_img_path").String(),
		Quantity:   qty,
	}
}

func order(v gjson.Result) model.Order {
	o := model.Order{
		OrderID:     v.Get("orderId").Int(),
		OrderDate:   date(v.Get("orderDate")),
		TotalPrice:  v.Get("totalPrice").Int(),
		UsedPoint:   v.Get("usedPoint").Int(),
		RemainPoint: v.Get("remainPoint").Int(),
		Items:       []model.OrderItem{},
	}
	for _, it := range first(v, "items", "orderItems").Array() {
		o.Items = append(o.Items, orderItem(it))
	}
	return o
}

func Order(raw []byte) model.Order {
	return order(gjson.ParseBytes(raw))
}

func Orders(raw []byte) []model.Order {
	items := array(raw)
	orders := make([]model.Order, 0, len(items))
	for _, it := range items {
		orders = append(orders, order(it))
	}
	return orders
}

// UserPage accepts {content:{content:[...]}, totalPages}, {content:[...]}
// and a bare array.
func UserPage(raw []byte, page, size int) (model.UserPage, error) {
	v := gjson.ParseBytes(raw)
	up := model.UserPage{Page: page, Size: size, TotalPages: 1, Content: []model.User{}}

	var list gjson.Result
	switch {
	case v.IsArray():
		list = v
	case v.Get("content.content").IsArray():
		list = v.Get("content.content")
	case v.Get("content").IsArray():
		list = v.Get("content")
	}
	for _, it := range list.Array() {
		var u model.User
		if err := json.Unmarshal([]byte(it.Raw), &u); err != nil {
			return model.UserPage{}, err
		}
		up.Content = append(up.Content, u)
	}
	if tp := first(v, "totalPages", "content.totalPages"); tp.Exists() {
		up.TotalPages = int(tp.Int())
	}
	if te := first(v, "totalElements", "content.totalElements"); te.Exists() {
		up.TotalElements = te.Int()
	} else {
		up.TotalElements = int64(len(up.Content))
	}
	return up, nil
}

// Session reads the login payload from content, falling back to response.
func Session(raw []byte) (model.Session, bool) {
	v := first(gjson.ParseBytes(raw), "content", "response.content", "response")
	if !v.IsObject() {
		return model.Session{}, false
	}
	s := model.Session{
		Token:    first(v, "token", "accessToken").String(),
		UserID:   v.Get("userId").String(),
		UserName: v.Get("userName").String(),
		UserRole: model.Role(first(v, "userRole", "role").String()),
	}
	return s, s.Token != ""
}

// Message extracts a backend message from a payload that may be a bare
// string or an object.
func Message(raw []byte) string {
	v := gjson.ParseBytes(raw)
	if v.Type == gjson.String {
		return v.Str
	}
	return first(v, "message", "resultMsg", "response").String()
}
