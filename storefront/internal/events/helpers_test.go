package events_test

import (
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/events"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

func newListener(url string, q *query.Client) *events.Listener {
	d := events.NewDispatcher(zap.NewNop(), q, nil, "")
	return events.NewListener(url, d, nil, zap.NewNop())
}
