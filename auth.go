package socks5

import (
	"context"
	"fmt"
)

// AuthMethod is the METHOD field of negotiation messages
type AuthMethod byte

const (
	MethodNoAuth       AuthMethod = 0x00
	MethodPassword     AuthMethod = 0x02
	MethodNoAcceptable AuthMethod = 0xFF
)

func (m AuthMethod) String() string {
	switch m {
	case MethodNoAuth:
		return "no authentication"

	case MethodPassword:
		return "username/password"

	case MethodNoAcceptable:
		return "no acceptable methods"
	}

	return fmt.Sprintf("method 0x%02x", byte(m))
}

// Auth represents an authenticator.
//
// NoAuth - no authentication is required.
//
// PassAuth - username/password authentication (RFC 1929).
type Auth interface {
	Request(ctx context.Context, conn *Conn) error // Run the authentication subnegotiation with the proxy

	Method() AuthMethod // Byte presentation of the authentication method
}
