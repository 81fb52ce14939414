package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
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
		log:    log.Named("auth"),
		client: client,
	}
}

// credentialHints are backend message fragments ("user id", "password")
// that mean the credentials were rejected.
var credentialHints = []string{"아이디", "패스워드", "password", "user id"}

func (s *Service) Login(ctx context.Context, userID, passwd string) (model.Session, error) {
	body, err := s.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   url.Values{"userId": {userID}, "passwd": {passwd}},
	})
	if err != nil {
		return model.Session{}, LoginError(err)
	}
	sess, ok := normalize.Session(body)
	if !ok {
		s.log.Warn("login response without token", zap.String("userId", userID))
		return model.Session{}, errs.ErrDefault
	}
	if sess.UserID == "" {
		sess.UserID = userID
	}
	return sess, nil
}

// LoginError maps a login failure to the user facing error category while
// keeping the cause in the chain.
func LoginError(err error) error {
	apiErr, ok := errs.AsAPIError(err)
	if !ok {
		return fmt.Errorf("%w: %w", errs.ErrDefault, err)
	}
	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", errs.ErrInvalidCredentials, err)
	case containsAny(msg, credentialHints):
		return fmt.Errorf("%w: %w", errs.ErrInvalidCredentials, err)
	case apiErr.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %w", errs.ErrDefault, err)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
