package socks5

import (
	"bufio"
	"context"
	"io"

	"github.com/joomcode/errorx"

	"github.com/osf4/socks5client/internal/errio"
)

var (
	Negotiator = &negotiator{} // Negotiator sends negotiation requests and reads the replies
)

type negotiator struct {
}

// Send the negotiation request to the proxy.
//
// Error is returned, if the context is done or the proxy does not support the selected authentication methods
func (n *negotiator) Request(ctx context.Context, c *Conn, methods []AuthMethod) (AuthMethod, error) {
	req := &NegotiationRequest{
		Methods: methods,
	}

	err := c.WriteMessage(ctx, req)
	if err != nil {
		return MethodNoAcceptable, errorx.Decorate(err, "unable to write the negotiation request")
	}

	rep := &NegotiationReply{}
	err = c.ReadMessage(ctx, rep)
	if err != nil {
		return MethodNoAcceptable, errorx.Decorate(err, "unable to read the negotiation reply")
	}

	if rep.Method == MethodNoAcceptable {
		return MethodNoAcceptable, ErrAuth.New("no acceptable authentication methods (offered %v)", methods)
	}

	if !isMethodSupported(rep.Method, methods) {
		return MethodNoAcceptable, ErrAuth.New("the proxy selected a method that was not offered (%v)", rep.Method)
	}

	return rep.Method, nil
}

// True, if methods contains the selected authentication method
func isMethodSupported(method AuthMethod, methods []AuthMethod) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}

	return false
}

// NegotiationRequest represents negotiation requests sent by the client
type NegotiationRequest struct {
	Methods []AuthMethod
}

func (r *NegotiationRequest) Write(wr io.Writer) error {
	if len(r.Methods) == 0 || len(r.Methods) > 255 {
		return ErrProtocol.New("invalid number of authentication methods (%v)", len(r.Methods))
	}

	w := bufio.NewWriterSize(wr, 2+len(r.Methods))

	nmethods := byte(len(r.Methods))
	w.Write([]byte{Version, nmethods})
	w.Write(methods2Bytes(r.Methods))

	err := w.Flush()
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the negotiation request")
	}

	return nil
}

func (r *NegotiationRequest) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	b := erd.Next(2)
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the negotiation request"); err != nil {
		return err
	}

	if ver := b[0]; !isSOCKS5(ver) {
		return ErrVersion.New("invalid protocol version (%v)", ver)
	}

	methods := erd.Next(int(b[1]))
	r.Methods = bytes2Methods(methods)

	return erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the negotiation request")
}

// NegotiationReply represents negotiation replies sent by the proxy
type NegotiationReply struct {
	Method AuthMethod
}

func (r *NegotiationReply) Write(wr io.Writer) error {
	_, err := wr.Write([]byte{Version, byte(r.Method)})
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the negotiation reply")
	}

	return nil
}

func (r *NegotiationReply) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	b := erd.Next(2)
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the negotiation reply"); err != nil {
		return err
	}

	if ver := b[0]; !isSOCKS5(ver) {
		return ErrVersion.New("unsupported SOCKS version (%v)", ver)
	}

	r.Method = AuthMethod(b[1])
	return nil
}

// Converts a slice of authentication methods to a byte slice
func methods2Bytes(m []AuthMethod) []byte {
	b := make([]byte, len(m))
	for i := 0; i < len(m); i++ {
		b[i] = byte(m[i])
	}

	return b
}

// Converts a byte slice to a slice of authentication methods
func bytes2Methods(b []byte) []AuthMethod {
	m := make([]AuthMethod, len(b))
	for i := 0; i < len(b); i++ {
		m[i] = AuthMethod(b[i])
	}

	return m
}
