package book

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/service/normalize"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/transport"
)

type Service struct {
	log    *zap.Logger
	client *transport.Client
}

func NewService(log *zap.Logger, client *transport.Client) *Service {
	return &Service{
		log:    log.Named("book"),
		client: client,
	}
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]model.Book, error) {
	return s.list(ctx, "/book/list", url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	})
}

func (s *Service) Best(ctx context.Context) ([]model.Book, error) {
	return s.list(ctx, "/book/best", nil)
}

// Search returns an empty result without calling the backend for a blank keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]model.Book, error) {
	if strings.TrimSpace(keyword) == "" {
		return []model.Book{}, nil
	}
	return s.list(ctx, "/book/search", url.Values{"keyword": {keyword}})
}

func (s *Service) list(ctx context.Context, path string, query url.Values) ([]model.Book, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	books, err := normalize.Books(transport.Unwrap(body))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return books, nil
}

func (s *Service) Get(ctx context.Context, bookID int64) (model.Book, error) {
	return s.one(ctx, http.MethodGet, bookPath(bookID), nil)
}

func (s *Service) Create(ctx context.Context, form model.BookForm) (model.Book, error) {
	return s.one(ctx, http.MethodPost, "/book", multipartForm(form))
}

func (s *Service) Update(ctx context.Context, bookID int64, form model.BookForm) (model.Book, error) {
	return s.one(ctx, http.MethodPut, bookPath(bookID), multipartForm(form))
}

// Delete returns the backend's confirmation message.
func (s *Service) Delete(ctx context.Context, bookID int64) (string, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   bookPath(bookID),
	})
	if err != nil {
		return "", err
	}
	return normalize.Message(transport.Unwrap(body)), nil
}

func (s *Service) one(ctx context.Context, method, path string, body any) (model.Book, error) {
	raw, err := s.client.Do(ctx, transport.Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return model.Book{}, err
	}
	b, err := normalize.Book(transport.Unwrap(raw))
	if err != nil {
		return model.Book{}, errors.Wrapf(err, "decode %s", path)
	}
	return b, nil
}

func bookPath(bookID int64) string {
	return "/book/" + strconv.FormatInt(bookID, 10)
}

func multipartForm(form model.BookForm) *transport.Multipart {
	return &transport.Multipart{
		Fields: url.Values{
			"title":      {form.Title},
			"authorName": {form.AuthorName},
			"price":      {strconv.FormatInt(form.Price, 10)},
			"stock":      {strconv.FormatInt(form.Stock, 10)},
		},
		Files: form.Files,
	}
}
