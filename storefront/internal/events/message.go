// Package events feeds cache invalidations from outside the process into
// the query cache and forwards local ones to other storefront instances.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/query"
)

const (
	TypeInvalidate = "invalidate"
	TypeRemove     = "remove"
)

const (
	SourceKafka     = "kafka"
	SourceWebSocket = "websocket"
)

// Message is the wire form of an invalidation:
// {"type":"invalidate","key":["book",42]}.
type Message struct {
	Type   string `json:"type"`
	Key    []any  `json:"key"`
	Origin string `json:"origin,omitempty"`
}

// Decode parses a message keeping numbers as json.Number so that 42 and
// "42" address the same key.
func Decode(raw []byte) (Message, error) {
	var m Message
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return Message{}, errors.Wrap(err, "decode event")
	}
	return m, nil
}

// Event converts m to a cache event attributed to source.
func (m Message) Event(source string) (query.Event, error) {
	ev := query.Event{Key: query.Key(m.Key), Source: source}
	switch m.Type {
	case TypeInvalidate:
		ev.Kind = query.EventInvalidated
	case TypeRemove:
		ev.Kind = query.EventRemoved
	default:
		return query.Event{}, fmt.Errorf("unknown event type %q", m.Type)
	}
	return ev, nil
}

// FromEvent builds the wire message for a local cache event.
func FromEvent(ev query.Event, origin string) (Message, bool) {
	m := Message{Key: []any(ev.Key), Origin: origin}
	switch ev.Kind {
	case query.EventInvalidated:
		m.Type = TypeInvalidate
	case query.EventRemoved:
		m.Type = TypeRemove
	default:
		return Message{}, false
	}
	if m.Key == nil {
		m.Key = []any{}
	}
	return m, true
}
