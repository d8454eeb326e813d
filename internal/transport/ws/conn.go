package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrConnClosed   = errors.New("ws: connection closed")
	ErrSlowConsumer = errors.New("ws: send queue full")
)

// Transport is the per-connection surface driven by a Session.
type Transport interface {
	Conn
	// ReadMessage blocks until the next inbound unit or a transport error.
	ReadMessage() ([]byte, error)
	// CloseWithCode marks the transport closed, then sends a close frame with
	// code and reason and drops the socket. It must not block on the peer.
	CloseWithCode(code int, reason string) error
}

type connOptions struct {
	sendQueue    int
	writeTimeout time.Duration
	pingInterval time.Duration
	idleTimeout  time.Duration
	readLimit    int64
}

// wsConn owns a gorilla connection. Outbound frames go through a bounded
// queue drained by a single writer goroutine.
type wsConn struct {
	conn *websocket.Conn
	opts connOptions

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, opts connOptions) *wsConn {
	if opts.sendQueue <= 0 {
		opts.sendQueue = 64
	}
	if opts.writeTimeout <= 0 {
		opts.writeTimeout = 5 * time.Second
	}

	wc := &wsConn{
		conn:   c,
		opts:   opts,
		send:   make(chan []byte, opts.sendQueue),
		closed: make(chan struct{}),
	}

	if opts.readLimit > 0 {
		c.SetReadLimit(opts.readLimit)
	}
	if opts.pingInterval > 0 && opts.idleTimeout <= 0 {
		pongWait := 2 * opts.pingInterval
		_ = c.SetReadDeadline(time.Now().Add(pongWait))
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	go wc.writeLoop()

	return wc
}

func (c *wsConn) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.closed:
		return ErrConnClosed
	default:
		return ErrSlowConsumer
	}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	if c.opts.idleTimeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))
	}
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode returns immediately. The close frame and socket teardown run
// in the background because the writer may be stuck on a stalled peer and
// WriteControl would wait for it up to the write timeout.
func (c *wsConn) CloseWithCode(code int, reason string) error {
	c.closeOnce.Do(func() {
		close(c.closed)
		go func() {
			msg := websocket.FormatCloseMessage(code, reason)
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.writeTimeout))
			_ = c.conn.Close()
		}()
	})

	return nil
}

func (c *wsConn) writeLoop() {
	var tick <-chan time.Time
	if c.opts.pingInterval > 0 {
		t := time.NewTicker(c.opts.pingInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.CloseWithCode(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-tick:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.writeTimeout)); err != nil {
				_ = c.CloseWithCode(websocket.CloseGoingAway, "ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}
