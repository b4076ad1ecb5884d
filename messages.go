package socks5

import (
	"bufio"
	"io"

	"github.com/osf4/socks5client/internal/errio"
)

const (
	Version = 0x05 // SOCKS protocol version

	reserved = 0x00
)

// Message represents messages sent by the client and read from the proxy (negotiation requests, authentication requests, replies)
type Message interface {
	Write(wr io.Writer) error
	Read(rd io.Reader) error
}

func isSOCKS5(ver byte) bool {
	return ver == Version
}

// Command is the CMD field of a request
type Command byte

const (
	CmdConnect Command = 0x01
	CmdBind    Command = 0x02
	CmdUDP     Command = 0x03
)

func (c Command) String() string {
	switch c {
	case CmdConnect:
		return "CONNECT"

	case CmdBind:
		return "BIND"

	case CmdUDP:
		return "UDP ASSOCIATE"
	}

	return "unknown command"
}

// True, if c is a valid command (CONNECT, BIND or UDP ASSOCIATE)
func (c Command) Valid() bool {
	return c >= CmdConnect && c <= CmdUDP
}

// Request represents requests sent by the client
type Request struct {
	Cmd Command // CMD field
	Dst *Addr   // DST.ADDR field (with ATYP and PORT)
}

func (r *Request) Write(wr io.Writer) error {
	if !r.Cmd.Valid() {
		return ErrProtocol.New("unknown command (%v)", byte(r.Cmd))
	}

	if r.Dst == nil {
		return ErrAddress.New("request without the destination address")
	}

	dst, err := r.Dst.Bytes()
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(wr, 3+len(dst))

	// VER CMD RSV fields
	w.Write([]byte{Version, byte(r.Cmd), reserved})

	// ATYP, DST.ADDR, PORT fields
	w.Write(dst)

	err = w.Flush()
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the request")
	}

	return nil
}

// Read the request (used by tests and tools that inspect the client traffic)
func (r *Request) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	b := erd.Next(3)
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the request"); err != nil {
		return err
	}

	if ver := b[0]; !isSOCKS5(ver) {
		return ErrVersion.New("invalid protocol version (%v)", ver)
	}

	r.Cmd = Command(b[1])
	r.Dst = new(Addr)

	return r.Dst.Read(erd)
}

// Reply represents replies sent by the proxy.
//
// Bnd is read only if Rep == RepSucceeded
type Reply struct {
	Rep ReplyStatus // REP field
	Bnd *Addr       // BND.ADDR field (with ATYP and PORT)
}

func (r *Reply) Write(wr io.Writer) error {
	bnd := r.Bnd
	if bnd == nil {
		bnd = &Addr{Host: IPv4Host{}}
	}

	b, err := bnd.Bytes()
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(wr, 3+len(b))

	// VER, REP, RSV fields
	w.Write([]byte{Version, byte(r.Rep), reserved})

	// ATYP, BND.ADDR, PORT fields
	w.Write(b)

	err = w.Flush()
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the reply")
	}

	return nil
}

func (r *Reply) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	hdr := &replyHeader{}
	err := hdr.Read(erd)
	if err != nil {
		return err
	}

	r.Rep = hdr.Rep
	if r.Rep != RepSucceeded {
		return nil
	}

	r.Bnd = new(Addr)
	return r.Bnd.Read(erd)
}

// replyHeader represents VER, REP and RSV fields of a reply
type replyHeader struct {
	Rep ReplyStatus
}

func (r *replyHeader) Write(wr io.Writer) error {
	_, err := wr.Write([]byte{Version, byte(r.Rep), reserved})
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the reply")
	}

	return nil
}

func (r *replyHeader) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	b := erd.Next(3)
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the reply"); err != nil {
		return err
	}

	if ver := b[0]; !isSOCKS5(ver) {
		return ErrVersion.New("invalid protocol version (%v)", ver)
	}

	r.Rep = ReplyStatus(b[1])
	return nil
}
