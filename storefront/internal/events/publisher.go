package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

// SharedPrefixes are the cache keys whose data is the same for every
// storefront instance. Per-session keys like the cart are never forwarded.
var SharedPrefixes = []query.Key{{"book"}, {"users"}}

// Publisher forwards local invalidations of shared keys to Kafka.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	origin   string
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, topic, origin string, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		origin:   origin,
		log:      log.Named("publisher"),
	}
}

// Run forwards events until ctx ends.
func (p *Publisher) Run(ctx context.Context, q *query.Client) {
	events, cancel := q.Subscribe(query.Key{})
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := p.Publish(ev); err != nil {
				p.log.Error("publish event", zap.Error(err), zap.Stringer("key", ev.Key))
			}
		}
	}
}

// Publish sends ev when it is a local change of a shared key.
func (p *Publisher) Publish(ev query.Event) error {
	if ev.Source != query.SourceLocal || !shared(ev.Key) {
		return nil
	}
	m, ok := FromEvent(ev, p.origin)
	if !ok {
		return nil
	}
	value, err := json.Marshal(m)
	if err != nil {
		return err
	}
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Key.String()),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return err
	}
	p.log.Debug("event published",
		zap.Stringer("key", ev.Key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func shared(key query.Key) bool {
	if len(key) == 0 {
		return false
	}
	for _, prefix := range SharedPrefixes {
		if key.HasPrefix(prefix) {
			return true
		}
	}
	return false
}
