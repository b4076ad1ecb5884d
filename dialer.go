package socks5

import (
	"context"
	"net"
)

type Dialer interface {
	Dial(network, address string) (net.Conn, error)
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

var (
	defaultDialer = &net.Dialer{}
)

// SOCKSDialer makes connections through the proxy.
// It can be used as http.Transport.DialContext
type SOCKSDialer struct {
	client *Client
}

func NewSOCKSDialer(c *Client) *SOCKSDialer {
	return &SOCKSDialer{
		client: c,
	}
}

func (d *SOCKSDialer) Dial(network, address string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, address)
}

func (d *SOCKSDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if ctx == nil {
		panic("context must be non-nil")
	}

	return d.client.DialContext(ctx, network, address)
}
