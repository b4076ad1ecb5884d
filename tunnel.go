package socks5

import (
	"net"
	"sync"
	"time"
)

// TunnelConn is a connection whose reads and writes are tunneled through the proxy.
//
// LocalAddr is the address reported by the proxy (BND.ADDR), RemoteAddr is the requested destination
type TunnelConn struct {
	proxy  *Conn
	local  *Addr
	remote *Addr

	closeOnce sync.Once
	closeErr  error
}

func newTunnelConn(proxy *Conn, local, remote *Addr) *TunnelConn {
	return &TunnelConn{
		proxy:  proxy,
		local:  local,
		remote: remote,
	}
}

func (c *TunnelConn) Read(p []byte) (n int, err error) {
	return c.proxy.Raw().Read(p)
}

func (c *TunnelConn) Write(p []byte) (n int, err error) {
	return c.proxy.Raw().Write(p)
}

// Close the connection. Closing it again is a no-op
func (c *TunnelConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.proxy.Close()
	})

	return c.closeErr
}

// Shut down the writing side, if the transport supports half-close
func (c *TunnelConn) CloseWrite() error {
	cw, ok := c.proxy.Raw().(interface{ CloseWrite() error })
	if !ok {
		return ErrConn.New("half-close is not supported by %T", c.proxy.Raw())
	}

	return cw.CloseWrite()
}

func (c *TunnelConn) LocalAddr() net.Addr {
	return c.local
}

func (c *TunnelConn) RemoteAddr() net.Addr {
	return c.remote
}

// Address of the proxy itself
func (c *TunnelConn) ProxyAddr() net.Addr {
	return c.proxy.Raw().RemoteAddr()
}

func (c *TunnelConn) SetDeadline(t time.Time) error {
	return c.proxy.Raw().SetDeadline(t)
}

func (c *TunnelConn) SetReadDeadline(t time.Time) error {
	return c.proxy.Raw().SetReadDeadline(t)
}

func (c *TunnelConn) SetWriteDeadline(t time.Time) error {
	return c.proxy.Raw().SetWriteDeadline(t)
}

func (c *TunnelConn) SetKeepAlive(keepalive bool) error {
	tc, err := c.tcp()
	if err != nil {
		return err
	}

	return tc.SetKeepAlive(keepalive)
}

func (c *TunnelConn) SetKeepAliveConfig(cfg net.KeepAliveConfig) error {
	tc, err := c.tcp()
	if err != nil {
		return err
	}

	return tc.SetKeepAliveConfig(cfg)
}

func (c *TunnelConn) SetNoDelay(noDelay bool) error {
	tc, err := c.tcp()
	if err != nil {
		return err
	}

	return tc.SetNoDelay(noDelay)
}

// Underlying TCP connection to the proxy
func (c *TunnelConn) tcp() (*net.TCPConn, error) {
	tc, ok := c.proxy.Raw().(*net.TCPConn)
	if !ok {
		return nil, ErrConn.New("the transport is not a TCP connection (%T)", c.proxy.Raw())
	}

	return tc, nil
}
