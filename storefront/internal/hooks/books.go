package hooks

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

type Books struct {
	log   *zap.Logger
	q     *query.Client
	guard guard
	svc   BookService
}

// detailOpts keeps book detail always fresh: stock changes under us.
var detailOpts = []query.Option{query.WithStaleTime(0), query.WithGCTime(0)}

func (b *Books) List(ctx context.Context, offset, limit int) ([]model.Book, error) {
	return query.Fetch(ctx, b.q, BookListKey(offset, limit), func(ctx context.Context) ([]model.Book, error) {
		return b.svc.List(ctx, offset, limit)
	})
}

// InvalidateLists marks every cached list page stale.
func (b *Books) InvalidateLists() {
	b.q.Invalidate(query.Key{"book", "list"})
}

func (b *Books) Best(ctx context.Context) ([]model.Book, error) {
	return query.Fetch(ctx, b.q, BestKey(), b.svc.Best)
}

func (b *Books) Search(ctx context.Context, keyword string) ([]model.Book, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Book{}, nil
	}
	return query.Fetch(ctx, b.q, SearchKey(keyword), func(ctx context.Context) ([]model.Book, error) {
		return b.svc.Search(ctx, keyword)
	})
}

func (b *Books) Get(ctx context.Context, bookID int64) (model.Book, error) {
	return query.Fetch(ctx, b.q, BookKey(bookID), b.getFn(bookID), detailOpts...)
}

// Watch polls the book every interval until ctx ends.
func (b *Books) Watch(ctx context.Context, bookID int64, interval time.Duration) <-chan query.Result[model.Book] {
	return query.Watch(ctx, b.q, BookKey(bookID), interval, b.getFn(bookID), detailOpts...)
}

func (b *Books) getFn(bookID int64) query.QueryFunc[model.Book] {
	return func(ctx context.Context) (model.Book, error) {
		return b.svc.Get(ctx, bookID)
	}
}

func (b *Books) Create(ctx context.Context, form model.BookForm) (model.Book, error) {
	if err := b.guard.admin(); err != nil {
		return model.Book{}, err
	}
	return mutate(ctx, b.log, "create book", query.Mutation[model.BookForm, model.Book]{
		Fn: b.svc.Create,
		OnSuccess: func(context.Context, model.Book, model.BookForm) {
			b.q.Invalidate(BooksKey())
		},
	}, form)
}

type bookUpdate struct {
	id   int64
	form model.BookForm
}

func (b *Books) Update(ctx context.Context, bookID int64, form model.BookForm) (model.Book, error) {
	if err := b.guard.admin(); err != nil {
		return model.Book{}, err
	}
	return mutate(ctx, b.log, "update book", query.Mutation[bookUpdate, model.Book]{
		Fn: func(ctx context.Context, in bookUpdate) (model.Book, error) {
			return b.svc.Update(ctx, in.id, in.form)
		},
		OnSuccess: func(context.Context, model.Book, bookUpdate) {
			b.q.Invalidate(BooksKey())
		},
	}, bookUpdate{id: bookID, form: form})
}

func (b *Books) Delete(ctx context.Context, bookID int64) (string, error) {
	if err := b.guard.admin(); err != nil {
		return "", err
	}
	return mutate(ctx, b.log, "delete book", query.Mutation[int64, string]{
		Fn: b.svc.Delete,
		OnSuccess: func(_ context.Context, _ string, id int64) {
			b.q.Remove(BookKey(id))
			b.q.Invalidate(BooksKey())
		},
	}, bookID)
}
