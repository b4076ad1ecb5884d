package socks5

import (
	"context"

	"github.com/joomcode/errorx"
)

// state of the client side of the handshake
type state int

const (
	stateMethodNegotiation state = iota
	stateAuthentication
	stateRequest
	stateBoundAddress
	stateDone
)

func (s state) String() string {
	switch s {
	case stateMethodNegotiation:
		return "method negotiation"

	case stateAuthentication:
		return "authentication"

	case stateRequest:
		return "request"

	case stateBoundAddress:
		return "bound address"

	case stateDone:
		return "done"
	}

	return "unknown state"
}

// NegotiationResult is produced by a successful handshake
type NegotiationResult struct {
	Conn  *Conn // authenticated connection to the proxy, ready to transfer data
	Bound *Addr // BND.ADDR and BND.PORT from the reply
}

// step is a single state of the handshake
type step struct {
	state state
	run   func(h *handshake, ctx context.Context) error
}

// Steps run in this exact order, none of them goes back
var handshakeSteps = []step{
	{stateMethodNegotiation, (*handshake).negotiate},
	{stateAuthentication, (*handshake).authenticate},
	{stateRequest, (*handshake).request},
	{stateBoundAddress, (*handshake).boundAddress},
}

// handshake drives one connection to the proxy from the method negotiation to the bound address
type handshake struct {
	conn   *Conn
	auth   Auth // authentication offered besides NoAuth, nil if no credentials are configured
	logger Logger

	req    *Request
	method AuthMethod
	bound  *Addr
	state  state
}

func newHandshake(conn *Conn, auth Auth, logger Logger, cmd Command, dst *Addr) *handshake {
	return &handshake{
		conn:   conn,
		auth:   auth,
		logger: logger,
		req: &Request{
			Cmd: cmd,
			Dst: dst,
		},
		method: MethodNoAcceptable,
		state:  stateMethodNegotiation,
	}
}

// Run all the steps.
//
// On failure the connection to the proxy is closed before the error is returned
func (h *handshake) run(ctx context.Context) (res *NegotiationResult, err error) {
	defer func() {
		if err != nil {
			h.logger.Errorf("[%v] %v -> %v failed at %v: %v", h.req.Cmd, h.proxyAddr(), h.req.Dst, h.state, err)
			h.conn.Close()
		}
	}()

	for _, s := range handshakeSteps {
		h.state = s.state
		h.logger.Debugf("[%v] %v: %v", h.req.Cmd, h.proxyAddr(), h.state)

		err = s.run(h, ctx)
		if err != nil {
			return nil, err
		}
	}

	h.state = stateDone

	return &NegotiationResult{
		Conn:  h.conn,
		Bound: h.bound,
	}, nil
}

// S0: offer NoAuth (and the configured method) and read the selected one
func (h *handshake) negotiate(ctx context.Context) error {
	method, err := Negotiator.Request(ctx, h.conn, h.methods())
	if err != nil {
		return err
	}

	h.method = method
	return nil
}

// S1: run the subnegotiation of the selected method
func (h *handshake) authenticate(ctx context.Context) error {
	auth, err := h.authFor(h.method)
	if err != nil {
		return err
	}

	return auth.Request(ctx, h.conn)
}

// Authenticator for the method selected by the proxy
func (h *handshake) authFor(method AuthMethod) (Auth, error) {
	switch {
	case method == MethodNoAuth:
		return NoAuth, nil

	case h.auth != nil && h.auth.Method() == method:
		return h.auth, nil
	}

	return nil, ErrAuth.New("authentication method (%v) is not configured", method)
}

// S2: send the request and read VER, REP and RSV of the reply
func (h *handshake) request(ctx context.Context) error {
	err := h.conn.WriteMessage(ctx, h.req)
	if err != nil {
		return errorx.Decorate(err, "unable to write the %v request", h.req.Cmd)
	}

	hdr := &replyHeader{}
	err = h.conn.ReadMessage(ctx, hdr)
	if err != nil {
		return errorx.Decorate(err, "unable to read the %v reply", h.req.Cmd)
	}

	return replyError(hdr.Rep, h.req)
}

// S3: read BND.ADDR and BND.PORT
func (h *handshake) boundAddress(ctx context.Context) error {
	bnd := &Addr{network: "tcp"}

	err := h.conn.ReadMessage(ctx, bnd)
	if err != nil {
		return errorx.Decorate(err, "unable to read the bound address")
	}

	h.bound = bnd
	return nil
}

func (h *handshake) methods() []AuthMethod {
	methods := []AuthMethod{MethodNoAuth}
	if h.auth != nil && h.auth.Method() != MethodNoAuth {
		methods = append(methods, h.auth.Method())
	}

	return methods
}

func (h *handshake) proxyAddr() string {
	if addr := h.conn.Raw().RemoteAddr(); addr != nil {
		return addr.String()
	}

	return "proxy"
}
