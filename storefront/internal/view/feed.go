package view

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

const (
	DefaultFeedLimit = 8
	EndMessage       = "all books loaded"
	endMessageFor    = 3 * time.Second
)

type FeedState struct {
	Books      []model.Book `json:"books"`
	Offset     int          `json:"offset"`
	HasMore    bool         `json:"hasMore"`
	Loading    bool         `json:"loading"`
	EndMessage string       `json:"endMessage,omitempty"`
}

// BookFeed is the "load more" book list.
type BookFeed struct {
	mu         sync.Mutex
	books      []model.Book
	offset     int
	hasMore    bool
	loading    bool
	endVisible bool
	endTimer   clock.Timer

	limit int
	src   BookSource
	clock clock.Clock
}

func NewBookFeed(src BookSource, clk clock.Clock, limit int) *BookFeed {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &BookFeed{
		books:   []model.Book{},
		hasMore: true,
		limit:   limit,
		src:     src,
		clock:   clk,
	}
}

// LoadMore appends the next page. It does nothing once the feed is
// exhausted and fails with errs.ErrLoadInProgress while a load is running.
func (f *BookFeed) LoadMore(ctx context.Context) (FeedState, error) {
	f.mu.Lock()
	if f.loading {
		s := f.state()
		f.mu.Unlock()
		return s, errs.ErrLoadInProgress
	}
	if !f.hasMore {
		s := f.state()
		f.mu.Unlock()
		return s, nil
	}
	f.loading = true
	offset := f.offset
	f.mu.Unlock()

	books, err := f.src.List(ctx, offset, f.limit)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		return f.state(), err
	}
	f.books = append(f.books, books...)
	f.offset += len(books)
	f.hasMore = len(books) == f.limit
	if !f.hasMore {
		f.showEnd()
	}
	return f.state(), nil
}

// Reload drops the loaded pages and starts again from offset 0.
func (f *BookFeed) Reload(ctx context.Context) (FeedState, error) {
	f.mu.Lock()
	if f.loading {
		s := f.state()
		f.mu.Unlock()
		return s, errs.ErrLoadInProgress
	}
	f.books = []model.Book{}
	f.offset = 0
	f.hasMore = true
	f.hideEnd()
	f.mu.Unlock()

	f.src.InvalidateLists()
	return f.LoadMore(ctx)
}

func (f *BookFeed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state()
}

// Close stops the end message timer.
func (f *BookFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hideEnd()
}

func (f *BookFeed) state() FeedState {
	s := FeedState{
		Books:   append([]model.Book(nil), f.books...),
		Offset:  f.offset,
		HasMore: f.hasMore,
		Loading: f.loading,
	}
	if f.endVisible {
		s.EndMessage = EndMessage
	}
	return s
}

func (f *BookFeed) showEnd() {
	f.hideEnd()
	f.endVisible = true
	f.endTimer = f.clock.AfterFunc(endMessageFor, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.endVisible = false
		f.endTimer = nil
	})
}

func (f *BookFeed) hideEnd() {
	if f.endTimer != nil {
		f.endTimer.Stop()
		f.endTimer = nil
	}
	f.endVisible = false
}
