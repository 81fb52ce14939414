package events

import (
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/metrics"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

// Applier is the part of the query cache events act on.
type Applier interface {
	Apply(ev query.Event) int
}

// Dispatcher decodes raw messages and applies them to the cache.
type Dispatcher struct {
	q       Applier
	metrics *metrics.Collector
	origin  string
	log     *zap.Logger
}

// NewDispatcher returns a dispatcher that ignores messages it published
// itself under origin.
func NewDispatcher(log *zap.Logger, q Applier, m *metrics.Collector, origin string) *Dispatcher {
	return &Dispatcher{
		q:       q,
		metrics: m,
		origin:  origin,
		log:     log.Named("events"),
	}
}

func (d *Dispatcher) Origin() string {
	return d.origin
}

// Handle applies one raw message received from source.
func (d *Dispatcher) Handle(source string, raw []byte) error {
	m, err := Decode(raw)
	if err != nil {
		return err
	}
	if d.origin != "" && m.Origin == d.origin {
		return nil
	}
	ev, err := m.Event(source)
	if err != nil {
		return err
	}
	n := d.q.Apply(ev)
	d.metrics.Event(source, m.Type)
	d.log.Debug("event applied",
		zap.String("source", source),
		zap.String("type", m.Type),
		zap.Stringer("key", ev.Key),
		zap.Int("matched", n))
	return nil
}
