package socks5

// ReplyStatus is the REP field of a reply
type ReplyStatus byte

const (
	RepSucceeded          ReplyStatus = 0x00
	RepServerFailure      ReplyStatus = 0x01
	RepConnNotAllowed     ReplyStatus = 0x02
	RepNetworkUnreachable ReplyStatus = 0x03
	RepHostUnreachable    ReplyStatus = 0x04
	RepConnRefused        ReplyStatus = 0x05
	RepTTLExpired         ReplyStatus = 0x06
	RepCmdNotSupported    ReplyStatus = 0x07
	RepAddrNotSupported   ReplyStatus = 0x08
)

// True, if r is a known reply code (RepSucceeded, RepServerFailure...)
func (r ReplyStatus) Valid() bool {
	return r < 0x09
}

// Human-readable meaning of the reply code
func (r ReplyStatus) Message() string {
	switch r {
	case RepSucceeded:
		return "succeeded"

	case RepServerFailure:
		return "general SOCKS server failure"

	case RepConnNotAllowed:
		return "connection not allowed by ruleset"

	case RepNetworkUnreachable:
		return "network unreachable"

	case RepHostUnreachable:
		return "host unreachable"

	case RepConnRefused:
		return "connection refused"

	case RepTTLExpired:
		return "TTL expired"

	case RepCmdNotSupported:
		return "command not supported"

	case RepAddrNotSupported:
		return "address type not supported"
	}

	return "unknown SOCKS error"
}

func (r ReplyStatus) String() string {
	return r.Message()
}
