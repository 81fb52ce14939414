package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ROLE_ADMIN"
	RoleUser  Role = "ROLE_USER"
)

// AdminUserID is the built-in administrator account; it never shows up as
// selectable in the user list.
const AdminUserID = "admin"

type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	UserRole Role   `json:"userRole"`
}

func (s Session) Empty() bool {
	return s.Token == ""
}

type LoginRequest struct {
	UserID string `json:"userId" validate:"required"`
	Passwd string `json:"passwd" validate:"required"`
}

type Book struct {
	BookID     int64  `json:"bookId"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	AuthorID   *int64 `json:"authorId,omitempty"`
	Price      int64  `json:"price"`
	Stock      int64  `json:"stock"`
	ImgPath    string `json:"imgPath"`
	CreateDate Date   `json:"createDate"`
}

// BookForm is the admin create/update payload. Files are optional cover
// uploads sent as multipart parts named "files".
type BookForm struct {
	Title      string `json:"title" validate:"required"`
	AuthorName string `json:"authorName" validate:"required"`
	Price      int64  `json:"price" validate:"gte=0"`
	Stock      int64  `json:"stock" validate:"gte=0"`
	Files      []File `json:"-"`
}

type File struct {
	Name    string
	Content []byte
}

type CartItem struct {
	ItemID     int64  `json:"itemId"`
	BookID     int64  `json:"bookId"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	ImgPath    string `json:"imgPath"`
}

func (i CartItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

type AddCartRequest struct {
	BookID   int64 `json:"bookId" validate:"required"`
	Quantity int64 `json:"quantity" validate:"gte=1"`
}

type Order struct {
	OrderID     int64       `json:"orderId"`
	OrderDate   Date        `json:"orderDate"`
	TotalPrice  int64       `json:"totalPrice"`
	UsedPoint   int64       `json:"usedPoint"`
	RemainPoint int64       `json:"remainPoint"`
	Items       []OrderItem `json:"items"`
}

type OrderItem struct {
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
	Price      int64  `json:"price"`
	ImgPath    string `json:"imgPath"`
	Quantity   int64  `json:"quantity"`
}

// CheckoutRequest covers both cart checkout (ItemIDs) and buy now
// (BookID + Quantity).
type CheckoutRequest struct {
	ItemIDs   []int64 `json:"itemIds,omitempty"`
	BookID    int64   `json:"bookId,omitempty"`
	Quantity  int64   `json:"quantity,omitempty"`
	UsedPoint int64   `json:"usedPoint" validate:"gte=0"`
}

type User struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Addr       string `json:"addr"`
	AddrDetail string `json:"addrDetail"`
	Point      int64  `json:"point"`
	UserRole   Role   `json:"userRole"`
	UseYn      string `json:"useYn"`
	DelYn      string `json:"delYn"`
	CreateDate Date   `json:"createDate"`
}

type UserPage struct {
	Content       []User `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalPages    int    `json:"totalPages"`
	TotalElements int64  `json:"totalElements"`
}

type PointUpdate struct {
	UserID string `json:"userId" validate:"required"`
	Point  int64  `json:"point" validate:"gte=0"`
}

type StatusUpdate struct {
	UseYn string `json:"useYn" validate:"omitempty,oneof=Y N"`
	DelYn string `json:"delYn" validate:"omitempty,oneof=Y N"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

type Date struct {
	time.Time `json:",inline"`
}

func ParseDate(s string) (Date, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{Time: t}, nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

func (d *Date) UnmarshalJSON(b []byte) (err error) {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		return nil
	}
	date, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = date
	return
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}
