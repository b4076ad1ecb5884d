package socks5

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// Conn represents the SOCKS5 connection to the proxy during the handshake
type Conn struct {
	alive atomic.Bool // represents if the connection is closed or not
	raw   net.Conn    // raw connection

	closeOnce sync.Once
	closeErr  error

	CloseOnContextDone bool // close the connection, if <-Context.Done()
}

func NewConn(raw net.Conn) *Conn {
	c := &Conn{
		raw: raw,

		CloseOnContextDone: true,
	}
	c.alive.Store(true)

	return c
}

// messageHandler represents a handler that is used to write or to read the message
type messageHandler func(io.ReadWriter, chan error, Message)

// Send the message to the connection.
// If the context is done, the connection will be closed
func (c *Conn) WriteMessage(ctx context.Context, msg Message) error {
	write := func(c io.ReadWriter, res chan error, msg Message) {
		err := msg.Write(c)
		res <- err
	}

	return c.processMessage(ctx, msg, write)
}

// Read a message from the connection.
// If the context is done, the connection will be closed
func (c *Conn) ReadMessage(ctx context.Context, msg Message) error {
	read := func(c io.ReadWriter, res chan error, msg Message) {
		err := msg.Read(c)
		res <- err
	}

	return c.processMessage(ctx, msg, read)
}

// Calls handler in a goroutine and waits for the result.
//
// err != nil, if the message can not be processed or ctx is done
func (c *Conn) processMessage(ctx context.Context, msg Message, handler messageHandler) error {
	if ctx == nil {
		panic("context must be non-nil")
	}

	if !c.Alive() {
		return ErrConn.New("use of closed connection to the proxy")
	}

	res := make(chan error, 1)
	go handler(c.raw, res, msg)

	select {
	case <-ctx.Done():
		c.onContextDone()
		return ErrConn.Wrap(ctx.Err(), "the handshake was interrupted")

	case err := <-res:
		return err
	}
}

// Raw connection
func (c *Conn) Raw() net.Conn {
	return c.raw
}

// Connection is closed or not
func (c *Conn) Alive() bool {
	return c.alive.Load()
}

// Close the raw connection. Subsequent calls return the result of the first one
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.alive.Store(false)
		c.closeErr = c.raw.Close()
	})

	return c.closeErr
}

func (c *Conn) onContextDone() {
	if c.CloseOnContextDone {
		c.Close()
	}
}
