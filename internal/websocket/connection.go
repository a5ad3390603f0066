package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"proctorhub/pkg/interfaces"
	"proctorhub/pkg/types"
)

const (
	sendBuffer   = 100
	writeTimeout = 5 * time.Second
)

// Connection wraps one WebSocket with a single writer goroutine. All
// outbound frames pass through the buffered write channel, which both
// serializes writes (gorilla connections allow only one concurrent writer)
// and preserves the order events were handed to Send.
type Connection struct {
	id        string
	conn      *websocket.Conn
	writeCh   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

var _ interfaces.Sender = (*Connection)(nil)

// NewConnection wraps conn and starts its writer goroutine. The id is the
// hub-visible connection identity, invalidated when the transport closes.
func NewConnection(id string, conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      id,
		conn:    conn,
		writeCh: make(chan []byte, sendBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop()
	return c
}

// ID returns the transport-assigned connection id.
func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues one event frame. It returns without touching the network:
// a full queue or a closed connection reports an error instead of
// blocking, so registry fan-out can never stall on a slow recipient.
func (c *Connection) Send(event string, data any) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	body, err := json.Marshal(data)
	if err != nil {
		return ErrInvalidPayload
	}
	frame, err := json.Marshal(types.Envelope{Event: event, Data: body})
	if err != nil {
		return ErrInvalidPayload
	}

	select {
	case c.writeCh <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrWriteTimeout
	}
}

// Close tears the connection down once; safe to call from any goroutine.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
