package socks5

import (
	"github.com/joomcode/errorx"

	"github.com/osf4/socks5client/internal/errio"
)

var (
	ErrSOCKS = errorx.NewNamespace("socks5")

	ErrEndedEarly    = ErrSOCKS.NewType("transport_ended_early") // the proxy closed the stream in the middle of a message
	ErrVersion       = ErrSOCKS.NewType("version_mismatch")      // VER is not 5 (or 1 for the password subnegotiation)
	ErrAuth          = ErrSOCKS.NewType("authentication_rejected")
	ErrRequestDenied = ErrSOCKS.NewType("request_denied") // REP is not RepSucceeded
	ErrAddress       = ErrSOCKS.NewType("malformed_address")
	ErrProtocol      = ErrSOCKS.NewType("protocol")
	ErrConn          = ErrSOCKS.NewType("connection")
)

var (
	PropertyMissing  = errio.PropertyMissing // int, bytes the proxy still owed
	PropertyReply    = errorx.RegisterPrintableProperty("reply")
	PropertyAddrType = errorx.RegisterPrintableProperty("atyp")
)

// Return the REP field of a ErrRequestDenied error
func ReplyStatusOf(err error) (ReplyStatus, bool) {
	v, ok := errorx.ExtractProperty(err, PropertyReply)
	if !ok {
		return RepSucceeded, false
	}

	rep, ok := v.(ReplyStatus)
	return rep, ok
}

// Return the number of bytes that were expected, when the proxy closed the connection
func MissingBytes(err error) (int, bool) {
	v, ok := errorx.ExtractProperty(err, PropertyMissing)
	if !ok {
		return 0, false
	}

	n, ok := v.(int)
	return n, ok
}

// Make the error for a failed request.
//
// If rep == RepSucceeded, nil is returned
func replyError(rep ReplyStatus, req *Request) error {
	if rep == RepSucceeded {
		return nil
	}

	return ErrRequestDenied.New("%v (%v %v)", rep.Message(), req.Cmd, req.Dst).
		WithProperty(PropertyReply, rep)
}
