package view

import (
	"context"
	"sort"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

type MyPageState struct {
	User   model.User    `json:"user"`
	Orders []model.Order `json:"orders"`
}

type MyPage struct {
	profile ProfileStore
	orders  OrderSource
	roles   RoleSource
}

func NewMyPage(profile ProfileStore, orders OrderSource, roles RoleSource) *MyPage {
	return &MyPage{profile: profile, orders: orders, roles: roles}
}

// Load returns the profile and, for regular members, their orders newest
// first.
func (m *MyPage) Load(ctx context.Context) (MyPageState, error) {
	u, err := m.profile.Me(ctx)
	if err != nil {
		return MyPageState{}, err
	}
	st := MyPageState{User: u, Orders: []model.Order{}}
	if m.roles.UserRole() != model.RoleUser {
		return st, nil
	}
	orders, err := m.orders.Mine(ctx)
	if err != nil {
		return st, err
	}
	st.Orders = SortOrders(orders)
	return st, nil
}

func (m *MyPage) Save(ctx context.Context, u model.User) (model.User, error) {
	return m.profile.UpdateMe(ctx, u)
}

// SortOrders returns a copy ordered by order date, newest first.
func SortOrders(orders []model.Order) []model.Order {
	out := append([]model.Order(nil), orders...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderDate.After(out[j].OrderDate.Time)
	})
	return out
}
