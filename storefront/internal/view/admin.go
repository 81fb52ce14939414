package view

import (
	"context"
	"sort"
	"sync"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const PageGroupSize = 5

type AdminRow struct {
	model.User
	Selectable  bool   `json:"selectable"`
	Selected    bool   `json:"selected"`
	EditedPoint *int64 `json:"editedPoint,omitempty"`
}

type AdminState struct {
	Users         []AdminRow `json:"users"`
	Page          int        `json:"page"`
	TotalPages    int        `json:"totalPages"`
	TotalElements int64      `json:"totalElements"`
	Pages         []int      `json:"pages"`
}

// UserAdmin is the paged member list with per-row point edits.
type UserAdmin struct {
	mu       sync.Mutex
	page     int
	size     int
	data     model.UserPage
	selected map[string]bool
	edits    map[string]int64

	src UserSource
}

func NewUserAdmin(src UserSource, size int) *UserAdmin {
	if size <= 0 {
		size = 10
	}
	return &UserAdmin{
		size:     size,
		data:     model.UserPage{TotalPages: 1},
		selected: make(map[string]bool),
		edits:    make(map[string]int64),
		src:      src,
	}
}

// Load fetches the current page.
func (a *UserAdmin) Load(ctx context.Context) (AdminState, error) {
	a.mu.Lock()
	page := a.page
	a.mu.Unlock()
	return a.load(ctx, page)
}

// GoTo moves to page when it lies within [0, totalPages).
func (a *UserAdmin) GoTo(ctx context.Context, page int) (AdminState, error) {
	a.mu.Lock()
	total := a.data.TotalPages
	a.mu.Unlock()
	if page < 0 || page >= max(total, 1) {
		return a.State(), errs.ErrInvalidInput
	}
	return a.load(ctx, page)
}

func (a *UserAdmin) Next(ctx context.Context) (AdminState, error) {
	a.mu.Lock()
	page := a.page + 1
	a.mu.Unlock()
	return a.GoTo(ctx, page)
}

func (a *UserAdmin) Prev(ctx context.Context) (AdminState, error) {
	a.mu.Lock()
	page := a.page - 1
	a.mu.Unlock()
	return a.GoTo(ctx, page)
}

func (a *UserAdmin) load(ctx context.Context, page int) (AdminState, error) {
	data, err := a.src.List(ctx, page, a.size)
	if err != nil {
		return a.State(), err
	}
	// the list shrank under a late page: fall back to its last page
	if last := max(data.TotalPages-1, 0); page > last {
		page = last
		if data, err = a.src.List(ctx, page, a.size); err != nil {
			return a.State(), err
		}
	}
	a.mu.Lock()
	if page != a.page {
		a.selected = make(map[string]bool)
		a.edits = make(map[string]int64)
	}
	a.page = page
	a.data = data
	a.mu.Unlock()
	return a.State(), nil
}

// ToggleSelect flips the selection of a row. The admin account cannot be
// selected.
func (a *UserAdmin) ToggleSelect(userID string) error {
	if userID == model.AdminUserID {
		return errs.ErrInvalidInput
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasRow(userID) {
		return errs.ErrNotFound
	}
	if a.selected[userID] {
		delete(a.selected, userID)
	} else {
		a.selected[userID] = true
	}
	return nil
}

// SetPoint records an edited point value for a row.
func (a *UserAdmin) SetPoint(userID string, point int64) error {
	if point < 0 {
		return errs.ErrInvalidInput
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasRow(userID) {
		return errs.ErrNotFound
	}
	a.edits[userID] = point
	return nil
}

// SavePoints sends the point of every selected row, the edited value when
// there is one, and reloads the page.
func (a *UserAdmin) SavePoints(ctx context.Context) (AdminState, error) {
	a.mu.Lock()
	updates := make([]model.PointUpdate, 0, len(a.selected))
	for _, u := range a.data.Content {
		if !a.selected[u.UserID] {
			continue
		}
		point := u.Point
		if p, ok := a.edits[u.UserID]; ok {
			point = p
		}
		updates = append(updates, model.PointUpdate{UserID: u.UserID, Point: point})
	}
	a.mu.Unlock()
	if len(updates) == 0 {
		return a.State(), errs.ErrNoSelection
	}

	err := a.src.UpdatePoints(ctx, updates)
	if err == nil {
		a.Reset()
	}
	st, lerr := a.Load(ctx)
	if err != nil {
		return st, err
	}
	return st, lerr
}

// Reset drops the row selection and every edited point.
func (a *UserAdmin) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selected = make(map[string]bool)
	a.edits = make(map[string]int64)
}

func (a *UserAdmin) SetStatus(ctx context.Context, userID string, st model.StatusUpdate) (AdminState, error) {
	if err := a.src.UpdateStatus(ctx, userID, st); err != nil {
		return a.State(), err
	}
	return a.Load(ctx)
}

func (a *UserAdmin) State() AdminState {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := make([]AdminRow, 0, len(a.data.Content))
	for _, u := range a.data.Content {
		row := AdminRow{
			User:       u,
			Selectable: u.UserID != model.AdminUserID,
			Selected:   a.selected[u.UserID],
		}
		if p, ok := a.edits[u.UserID]; ok {
			row.EditedPoint = &p
		}
		rows = append(rows, row)
	}
	return AdminState{
		Users:         rows,
		Page:          a.page,
		TotalPages:    a.data.TotalPages,
		TotalElements: a.data.TotalElements,
		Pages:         PageGroup(a.page, a.data.TotalPages),
	}
}

// Selected returns the selected user ids in sorted order.
func (a *UserAdmin) Selected() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.selected))
	for id := range a.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (a *UserAdmin) hasRow(userID string) bool {
	for _, u := range a.data.Content {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// PageGroup returns the group of up to five page indexes containing page.
func PageGroup(page, totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	end := min(page/PageGroupSize*PageGroupSize+PageGroupSize, totalPages)
	start := min(page/PageGroupSize*PageGroupSize, end)
	out := make([]int, 0, end-start)
	for p := start; p < end; p++ {
		out = append(out, p)
	}
	return out
}
