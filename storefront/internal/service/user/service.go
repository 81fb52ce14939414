package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
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
		log:    log.Named("user"),
		client: client,
	}
}

func (s *Service) List(ctx context.Context, page, size int) (model.UserPage, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/admin/users",
		Query: url.Values{
			"page": {strconv.Itoa(page)},
			"size": {strconv.Itoa(size)},
		},
	})
	if err != nil {
		return model.UserPage{}, err
	}
	up, err := normalize.UserPage(transport.Unwrap(body), page, size)
	return up, errors.Wrap(err, "decode users")
}

func (s *Service) UpdatePoint(ctx context.Context, userID string, point int64) error {
	return s.client.Call(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/admin/users/" + url.PathEscape(userID) + "/point",
		Body:   map[string]int64{"point": point},
	}, nil)
}

// UpdateStatus sends the flags as query parameters with an empty body.
func (s *Service) UpdateStatus(ctx context.Context, userID, useYn, delYn string) error {
	q := url.Values{}
	if useYn != "" {
		q.Set("useYn", useYn)
	}
	if delYn != "" {
		q.Set("delYn", delYn)
	}
	return s.client.Call(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/admin/users/" + url.PathEscape(userID),
		Query:  q,
	}, nil)
}

func (s *Service) Detail(ctx context.Context) (model.User, error) {
	var u model.User
	err := s.client.Call(ctx, transport.Request{Method: http.MethodGet, Path: "/users/me"}, &u)
	return u, err
}

// Update saves the profile and returns the user the backend answered with.
// Backends that answer with a bare status message yield a zero User; the
// caller has to fetch the profile again.
func (s *Service) Update(ctx context.Context, u model.User) (model.User, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   "/users/me",
		Body:   u,
	})
	if err != nil {
		return model.User{}, err
	}
	payload := transport.Unwrap(body)
	if r := gjson.ParseBytes(payload); !r.IsObject() || r.Get("userId").String() == "" {
		return model.User{}, nil
	}
	var updated model.User
	if err := json.Unmarshal(payload, &updated); err != nil {
		return model.User{}, errors.Wrap(err, "decode profile")
	}
	return updated, nil
}
