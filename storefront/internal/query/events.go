package query

import "sync"

type EventKind int

const (
	EventInvalidated EventKind = iota + 1
	EventRemoved
	EventUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventInvalidated:
		return "invalidate"
	case EventRemoved:
		return "remove"
	case EventUpdated:
		return "update"
	}
	return "unknown"
}

// SourceLocal marks events caused by this process.
const SourceLocal = "local"

// Event is a change to the cache. Key is the prefix the change applied to.
type Event struct {
	Kind   EventKind
	Key    Key
	Source string
}

// matches reports whether the event concerns subscriptions on prefix:
// either prefix lies under the event key or the event key lies under prefix.
func (ev Event) matches(prefix Key) bool {
	return prefix.HasPrefix(ev.Key) || ev.Key.HasPrefix(prefix)
}

const subscriberBuffer = 16

type subscriber struct {
	prefix Key
	ch     chan Event
	once   sync.Once
}

// Subscribe delivers events that overlap prefix until cancel is called.
// Slow subscribers miss events rather than block the cache.
func (c *Client) Subscribe(prefix Key) (<-chan Event, func()) {
	s := &subscriber{prefix: prefix, ch: make(chan Event, subscriberBuffer)}
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = s
	c.subMu.Unlock()

	return s.ch, func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
		s.once.Do(func() { close(s.ch) })
	}
}

func (c *Client) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, s := range c.subs {
		if !ev.matches(s.prefix) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}
