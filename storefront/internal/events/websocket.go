package events

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Listener reads invalidation messages from a WebSocket feed and
// reconnects with exponential backoff until its context ends.
type Listener struct {
	url    string
	d      *Dispatcher
	clock  clock.Clock
	dialer *websocket.Dialer
	log    *zap.Logger
}

func NewListener(url string, d *Dispatcher, clk clock.Clock, log *zap.Logger) *Listener {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Listener{
		url:    url,
		d:      d,
		clock:  clk,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log.Named("websocket"),
	}
}

func (l *Listener) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = minBackoff
		}
		l.log.Warn("event feed disconnected", zap.Error(err), zap.Duration("retryIn", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-l.clock.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// session reads one connection until it fails. A nil error means the
// server closed the connection normally.
func (l *Listener) session(ctx context.Context) error {
	conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return errors.Wrap(err, "websocket dial")
	}
	l.log.Info("event feed connected", zap.String("url", l.url))

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "websocket read")
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if err := l.d.Handle(SourceWebSocket, raw); err != nil {
			l.log.Error("drop event", zap.Error(err), zap.ByteString("value", raw))
		}
	}
}
