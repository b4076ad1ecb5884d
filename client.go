package socks5

import (
	"context"
	"net"

	"github.com/joomcode/errorx"
)

type Client struct {
	config Config

	Dialer Dialer // Dialer that is used to make connections to the proxy
	Logger *switchLogger
}

func NewClient(cfg Config) *Client {
	return &Client{
		config: cfg,
		Dialer: defaultDialer,
		Logger: &switchLogger{false, defaultLogger()},
	}
}

// Return a client for socks5://[user:pass@]host[:port]
func NewClientURL(rawURL string) (*Client, error) {
	cfg, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	return NewClient(cfg), nil
}

func (c *Client) Config() Config {
	return c.config
}

// Send the CONNECT request.
//
// The returned connection is tunneled to host:port through the proxy
func (c *Client) Connect(ctx context.Context, host string, port uint16) (*TunnelConn, error) {
	if ctx == nil {
		panic("context must be non-nil")
	}

	dst, err := NewAddr(host, port)
	if err != nil {
		return nil, err
	}

	return c.connect(ctx, dst)
}

func (c *Client) connect(ctx context.Context, dst *Addr) (*TunnelConn, error) {
	res, err := c.handshake(ctx, CmdConnect, dst)
	if err != nil {
		return nil, err
	}

	c.Logger.Infof("[%v] %v <-> %v (bound %v)", CmdConnect, c.config.ProxyAddr(), dst, res.Bound)

	return newTunnelConn(res.Conn, res.Bound, dst), nil
}

// Send the BIND request.
//
// bound receives the BND.ADDR of the first reply, the address the proxy is listening at.
// The call returns after the second reply, when the remote host has connected
func (c *Client) Bind(ctx context.Context, host string, port uint16, bound chan<- *Addr) (conn *TunnelConn, err error) {
	if ctx == nil {
		panic("context must be non-nil")
	}

	dst, err := NewAddr(host, port)
	if err != nil {
		return nil, err
	}

	res, err := c.handshake(ctx, CmdBind, dst)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			res.Conn.Close()
		}
	}()

	if bound != nil {
		select {
		case bound <- res.Bound:
		case <-ctx.Done():
			return nil, ErrConn.Wrap(ctx.Err(), "the BIND request was interrupted")
		}
	}

	req := &Request{Cmd: CmdBind, Dst: dst}
	rep, err := c.readReply(ctx, res.Conn, req)
	if err != nil {
		err = errorx.Decorate(err, "unable to read the second BIND reply")
		c.Logger.ErrorT(err)

		return nil, err
	}

	c.Logger.Infof("[%v] %v <-> %v (listening at %v)", CmdBind, rep.Bnd, c.config.ProxyAddr(), res.Bound)

	return newTunnelConn(res.Conn, res.Bound, rep.Bnd), nil
}

// DialContext connects to address ("host:port") through the proxy.
// Only TCP networks are supported
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":

	default:
		return nil, ErrProtocol.Wrap(net.UnknownNetworkError(network), "unable to establish connection")
	}

	if ctx == nil {
		panic("context must be non-nil")
	}

	dst, err := ParseAddr(address)
	if err != nil {
		return nil, err
	}

	conn, err := c.connect(ctx, dst)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (c *Client) Dial(network, address string) (net.Conn, error) {
	return c.DialContext(context.Background(), network, address)
}

// Return a Dialer that will make connections through the proxy
func (c *Client) SOCKSDialer() Dialer {
	return NewSOCKSDialer(c)
}

// Replace the logger. It stays disabled until EnableLogger is called
func (c *Client) SetLogger(l Logger) {
	c.Logger.Logger = l
}

func (c *Client) EnableLogger() {
	c.Logger.Enable = true
}

func (c *Client) DisableLogger() {
	c.Logger.Enable = false
}

// Dial the proxy and run the handshake for cmd.
//
// The connection is closed, if the handshake fails
func (c *Client) handshake(ctx context.Context, cmd Command, dst *Addr) (*NegotiationResult, error) {
	raw, err := c.Dialer.DialContext(ctx, "tcp", c.config.ProxyAddr())
	if err != nil {
		return nil, ErrConn.Wrap(err, "unable to establish the connection to the proxy (%v)", c.config.ProxyAddr())
	}

	h := newHandshake(NewConn(raw), c.auth(), c.Logger, cmd, dst)
	return h.run(ctx)
}

// Read a full reply from the proxy.
//
// error is returned, if the reply is not RepSucceeded
func (c *Client) readReply(ctx context.Context, proxy *Conn, req *Request) (*Reply, error) {
	rep := &Reply{}
	err := proxy.ReadMessage(ctx, rep)
	if err != nil {
		return nil, err
	}

	if err := replyError(rep.Rep, req); err != nil {
		return nil, err
	}

	return rep, nil
}

// Authentication offered besides NoAuth, nil if the credentials are not configured
func (c *Client) auth() Auth {
	if !c.config.hasCredentials() {
		return nil
	}

	return NewPassAuth(c.config.Username, c.config.Password)
}
