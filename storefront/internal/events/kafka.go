package events

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Consumer is a sarama consumer group handler feeding the dispatcher.
type Consumer struct {
	d     *Dispatcher
	log   *zap.Logger
	ready chan bool
}

func NewConsumer(d *Dispatcher, log *zap.Logger) *Consumer {
	return &Consumer{
		d:     d,
		log:   log.Named("consumer"),
		ready: make(chan bool),
	}
}

// Ready is closed once the first session has been set up.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if err := consumer.d.Handle(SourceKafka, message.Value); err != nil {
				consumer.log.Error("drop event", zap.Error(err), zap.ByteString("value", message.Value))
			}
			consumer.log.Debug("message claimed",
				zap.String("topic", message.Topic),
				zap.Int32("partition", message.Partition),
				zap.Int64("offset", message.Offset))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
