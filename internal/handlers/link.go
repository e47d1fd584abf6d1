// internal/handlers/link.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/duo/internal/protocol"
	"github.com/jason-s-yu/duo/internal/table"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LinkOptions tunes a websocket link. Zero fields take defaults.
type LinkOptions struct {
	WriteTimeout time.Duration // per frame, default 5s
	RateLimit    rate.Limit    // inbound frames per second, default 10
	RateBurst    int           // default 20
}

func (o LinkOptions) withDefaults() LinkOptions {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	return o
}

// wsLink implements table.Link over a websocket. Send only queues; a single
// write pump keeps frames in order.
type wsLink struct {
	conn         *websocket.Conn
	out          chan []byte
	done         chan struct{}
	flushed      chan struct{} // closed when the write pump returns
	closeOnce    sync.Once
	closedLocal  bool
	mu           sync.Mutex
	writeTimeout time.Duration
}

func newWSLink(conn *websocket.Conn, writeTimeout time.Duration) *wsLink {
	return &wsLink{
		conn:         conn,
		out:          make(chan []byte, 64),
		done:         make(chan struct{}),
		flushed:      make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

func (l *wsLink) Send(ctx context.Context, m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-l.done:
		return table.ErrLinkClosed
	default:
	}
	select {
	case l.out <- data:
		return nil
	case <-l.done:
		return table.ErrLinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes out whatever Send already queued, then performs the websocket
// close handshake. The peer's OnClose sees an orderly close.
func (l *wsLink) Close() error {
	l.mu.Lock()
	l.closedLocal = true
	l.mu.Unlock()
	l.stop()
	select {
	case <-l.flushed:
	case <-time.After(l.writeTimeout):
	}
	return l.conn.Close(websocket.StatusNormalClosure, "table closed")
}

func (l *wsLink) stop() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *wsLink) closedLocally() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closedLocal
}

func (l *wsLink) writePump(ctx context.Context) error {
	defer close(l.flushed)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return l.drain(ctx)
		case data := <-l.out:
			if err := l.write(ctx, data); err != nil {
				return err
			}
		}
	}
}

// drain writes the frames still queued when the link was stopped.
func (l *wsLink) drain(ctx context.Context) error {
	for {
		select {
		case data := <-l.out:
			if err := l.write(ctx, data); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (l *wsLink) write(ctx context.Context, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()
	if err := l.conn.Write(wctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// readPump decodes frames and hands them to the peer. Frames of unknown kind
// and malformed frames are dropped. The limiter throttles a flooding peer
// instead of dropping its intents.
func (l *wsLink) readPump(ctx context.Context, peer table.Peer, limiter *rate.Limiter, logger *logrus.Entry) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		typ, data, err := l.conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text frame of type %d", typ)
			continue
		}
		m, err := protocol.Decode(data)
		if errors.Is(err, protocol.ErrUnknownKind) {
			logger.Debugf("ignoring frame: %v", err)
			continue
		}
		if err != nil {
			logger.Warnf("dropping malformed frame: %v", err)
			continue
		}
		peer.OnData(ctx, m)
	}
}

// Serve attaches peer to conn and blocks until the connection ends. The peer
// gets OnOpen once the pumps run and OnClose when they stop. A host that
// refuses the link with table.ErrSeatTaken is left untouched.
func Serve(ctx context.Context, conn *websocket.Conn, peer table.Peer, opts LinkOptions, logger *logrus.Entry) error {
	opts = opts.withDefaults()
	link := newWSLink(conn, opts.WriteTimeout)
	defer conn.CloseNow()
	defer link.stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return link.writePump(gctx) })

	if err := peer.OnOpen(gctx, link); err != nil {
		code := TableClosedError
		if errors.Is(err, table.ErrSeatTaken) {
			code = SeatTakenError
		} else {
			peer.OnClose(err)
		}
		link.stop()
		conn.Close(code, err.Error())
		g.Wait()
		return err
	}

	limiter := rate.NewLimiter(opts.RateLimit, opts.RateBurst)
	g.Go(func() error { return link.readPump(gctx, peer, limiter, logger) })

	err := g.Wait()
	link.stop()
	switch status := websocket.CloseStatus(err); {
	case link.closedLocally(), status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway:
		peer.OnClose(nil)
		return nil
	default:
		peer.OnClose(err)
		return err
	}
}
