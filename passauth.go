package socks5

import (
	"bufio"
	"context"
	"io"

	"github.com/joomcode/errorx"

	"github.com/osf4/socks5client/internal/errio"
)

type statusType byte

const (
	subnegotiationVersion = 0x01

	statusOK      statusType = 0x00
	statusFailure statusType = 0x01

	maxCredentialLength = 255
)

// PassAuth represents the username/password authentication method
type PassAuth struct {
	user, pass string
}

func NewPassAuth(user, password string) *PassAuth {
	return &PassAuth{
		user: user,
		pass: password,
	}
}

func (a *PassAuth) Request(ctx context.Context, c *Conn) error {
	req := NewPassRequest(a.user, a.pass)

	err := c.WriteMessage(ctx, req)
	if err != nil {
		return errorx.Decorate(err, "unable to write the password authentication request")
	}

	rep := &PassReply{}
	err = c.ReadMessage(ctx, rep)
	if err != nil {
		return errorx.Decorate(err, "unable to read the password authentication reply")
	}

	if rep.Status != statusOK {
		return ErrAuth.New("authentication failed (status %v)", byte(rep.Status))
	}

	return nil
}

func (a *PassAuth) Method() AuthMethod {
	return MethodPassword
}

// PassRequest represents the username/password request (RFC 1929)
type PassRequest struct {
	uname, passwd []byte
}

func NewPassRequest(user, password string) *PassRequest {
	return &PassRequest{
		uname:  []byte(user),
		passwd: []byte(password),
	}
}

func (r *PassRequest) Username() string { return string(r.uname) }
func (r *PassRequest) Password() string { return string(r.passwd) }

func (r *PassRequest) Write(wr io.Writer) error {
	if len(r.uname) > maxCredentialLength || len(r.passwd) > maxCredentialLength {
		return ErrProtocol.New("username and password must be at most %v bytes long", maxCredentialLength)
	}

	w := bufio.NewWriterSize(wr, 3+len(r.uname)+len(r.passwd))
	ulen, plen := byte(len(r.uname)), byte(len(r.passwd))

	w.WriteByte(subnegotiationVersion)

	w.WriteByte(ulen)
	w.Write(r.uname)

	w.WriteByte(plen)
	w.Write(r.passwd)

	err := w.Flush()
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the password authentication request")
	}

	return nil
}

func (r *PassRequest) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	ver := erd.Byte()
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the password authentication request"); err != nil {
		return err
	}

	if ver != subnegotiationVersion {
		return ErrVersion.New("subnegotiation version is wrong (%v)", ver)
	}

	r.uname = erd.Next(int(erd.Byte()))
	r.passwd = erd.Next(int(erd.Byte()))

	return erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the password authentication request")
}

// PassReply represents the username/password reply
type PassReply struct {
	Status statusType
}

func (r *PassReply) Write(wr io.Writer) error {
	_, err := wr.Write([]byte{subnegotiationVersion, byte(r.Status)})
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the password authentication reply")
	}

	return nil
}

func (r *PassReply) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)

	b := erd.Next(2)
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the password authentication reply"); err != nil {
		return err
	}

	if b[0] != subnegotiationVersion {
		return ErrVersion.New("subnegotiation version is wrong (%v)", b[0])
	}

	r.Status = statusType(b[1])
	return nil
}
