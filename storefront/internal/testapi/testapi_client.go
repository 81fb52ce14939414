package testapi

import (
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/transport"
)

// Client returns a transport client against the backend that sends the
// token of userID, or no token when userID is empty.
func (b *Backend) Client(userID string) *transport.Client {
	return transport.New(zap.NewNop(), config.API{BaseURL: b.URL(), Timeout: 5 * time.Second},
		transport.TokenFunc(func() string {
			if userID == "" {
				return ""
			}
			return Token(userID)
		}))
}
