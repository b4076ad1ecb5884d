package socks5

import (
	"encoding/binary"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/osf4/socks5client/internal/errio"
)

// AddrType is the ATYP field
type AddrType byte

const (
	AddrIPv4   AddrType = 0x01
	AddrDomain AddrType = 0x03
	AddrIPv6   AddrType = 0x04
)

func (t AddrType) String() string {
	switch t {
	case AddrIPv4:
		return "IPv4"

	case AddrDomain:
		return "domain name"

	case AddrIPv6:
		return "IPv6"
	}

	return "unknown address type (" + strconv.Itoa(int(t)) + ")"
}

const maxDomainLength = 255

var (
	ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
	ipv6Pattern = regexp.MustCompile(`(?i)^(?:[0-9a-f]{1,4}:){7}[0-9a-f]{1,4}$`)
)

// Host is DST.ADDR or BND.ADDR without the port.
// The set of implementations is closed: IPv4Host, IPv6Host and DomainHost
type Host interface {
	Type() AddrType
	String() string

	len() int // length of the encoded address without ATYP
	put(b []byte)
}

// IPv4Host holds the four octets in network order
type IPv4Host [4]byte

func (h IPv4Host) Type() AddrType { return AddrIPv4 }

func (h IPv4Host) String() string {
	return net.IP(h[:]).String()
}

func (h IPv4Host) len() int     { return net.IPv4len }
func (h IPv4Host) put(b []byte) { copy(b, h[:]) }

// IPv6Host holds eight 16-bit groups
type IPv6Host [8]uint16

func (h IPv6Host) Type() AddrType { return AddrIPv6 }

// Colon-hex form without zero compression ("0:0:0:0:0:0:0:1")
func (h IPv6Host) String() string {
	groups := make([]string, len(h))
	for i, g := range h {
		groups[i] = strconv.FormatUint(uint64(g), 16)
	}

	return strings.Join(groups, ":")
}

func (h IPv6Host) len() int { return net.IPv6len }

func (h IPv6Host) put(b []byte) {
	for i, g := range h {
		binary.BigEndian.PutUint16(b[2*i:], g)
	}
}

// DomainHost is a name the proxy resolves, at most 255 bytes on the wire
type DomainHost string

func (h DomainHost) Type() AddrType { return AddrDomain }
func (h DomainHost) String() string { return string(h) }
func (h DomainHost) len() int       { return 1 + len(h) }

func (h DomainHost) put(b []byte) {
	b[0] = byte(len(h))
	copy(b[1:], h)
}

// Classify the hostname.
//
// Dotted-decimal strings are IPv4 addresses, full 8-group colon-hex strings are IPv6 addresses,
// everything else is a domain name
func ParseHost(hostname string) (Host, error) {
	if m := ipv4Pattern.FindStringSubmatch(hostname); m != nil {
		var h IPv4Host
		for i, group := range m[1:] {
			octet, err := strconv.ParseUint(group, 10, 8)
			if err != nil {
				return nil, ErrAddress.New("IPv4 octet out of range (host=%v, octet=%v)", hostname, group)
			}

			h[i] = byte(octet)
		}

		return h, nil
	}

	if ipv6Pattern.MatchString(hostname) {
		var h IPv6Host
		for i, group := range strings.Split(hostname, ":") {
			// the pattern guarantees 1-4 hex digits
			g, _ := strconv.ParseUint(group, 16, 16)
			h[i] = uint16(g)
		}

		return h, nil
	}

	if len(hostname) > maxDomainLength {
		return nil, ErrAddress.New("domain name is too long (%v bytes, max %v)", len(hostname), maxDomainLength)
	}

	return DomainHost(hostname), nil
}

// Addr represents DST.ADDR and BND.ADDR fields in requests and replies
type Addr struct {
	network string // "tcp", used to make Addr compatible with net.Addr

	Host Host   // ATYP and DST.ADDR/BND.ADDR fields
	Port uint16 // PORT field
}

func NewAddr(hostname string, port uint16) (*Addr, error) {
	host, err := ParseHost(hostname)
	if err != nil {
		return nil, err
	}

	return &Addr{
		network: "tcp",
		Host:    host,
		Port:    port,
	}, nil
}

// Parse Addr from a "host:port" string
func ParseAddr(addr string) (*Addr, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, ErrAddress.Wrap(err, "unable to parse the address (%v)", addr)
	}

	portUint, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return nil, ErrAddress.Wrap(err, "invalid port (%v)", addr)
	}

	return NewAddr(host, uint16(portUint))
}

// Encode the address to ATYP | ADDR | PORT
func EncodeAddr(hostname string, port uint16) ([]byte, error) {
	a, err := NewAddr(hostname, port)
	if err != nil {
		return nil, err
	}

	return a.Bytes()
}

// Decode an address from rd.
//
// n is the number of consumed bytes (ATYP, ADDR and PORT)
func DecodeAddr(rd io.Reader) (host string, port uint16, n int, err error) {
	erd := errio.NewReader(rd)
	start := erd.Count()

	a := &Addr{}
	err = a.Read(erd)
	if err != nil {
		return "", 0, erd.Count() - start, err
	}

	return a.Host.String(), a.Port, erd.Count() - start, nil
}

// Encode ATYP | ADDR | PORT.
//
// An address that does not pass Validate is not encoded
func (a *Addr) Bytes() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	b := make([]byte, a.Len())

	b[0] = byte(a.Host.Type())
	a.Host.put(b[1:])
	binary.BigEndian.PutUint16(b[len(b)-2:], a.Port)

	return b, nil
}

func (a *Addr) Write(wr io.Writer) error {
	b, err := a.Bytes()
	if err != nil {
		return err
	}

	_, err = wr.Write(b)
	if err != nil {
		return ErrConn.Wrap(err, "unable to write the address")
	}

	return nil
}

func (a *Addr) Read(rd io.Reader) error {
	erd := errio.NewReader(rd)
	if a.network == "" {
		a.network = "tcp"
	}

	atyp := AddrType(erd.Byte())
	if err := erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the address type"); err != nil {
		return err
	}

	switch atyp {
	case AddrIPv4:
		var h IPv4Host
		erd.ReadFull(h[:])
		a.Host = h

	case AddrIPv6:
		var h IPv6Host
		for i := range h {
			h[i] = erd.Uint16()
		}
		a.Host = h

	case AddrDomain:
		domainLen := int(erd.Byte())
		a.Host = DomainHost(erd.Next(domainLen))

	default:
		return ErrAddress.New("unexpected address type (%v)", byte(atyp)).
			WithProperty(PropertyAddrType, byte(atyp))
	}

	a.Port = erd.Uint16()

	return erd.Wrap(ErrEndedEarly, ErrConn, "unable to read the address")
}

func (a *Addr) Network() string {
	return a.network
}

func (a *Addr) String() string {
	host := ""
	if a.Host != nil {
		host = a.Host.String()
	}

	return net.JoinHostPort(host, strconv.FormatUint(uint64(a.Port), 10))
}

// Length of ATYP, DST.ADDR and PORT fields, 0 if the host is not set
func (a *Addr) Len() int {
	if a.Host == nil {
		return 0
	}

	return 1 + a.Host.len() + 2
}

// Validate returns an error, if the address can not be encoded
func (a *Addr) Validate() error {
	switch h := a.Host.(type) {
	case nil:
		return ErrAddress.New("empty host")

	case DomainHost:
		if len(h) > maxDomainLength {
			return ErrAddress.New("domain name is too long (%v bytes, max %v)", len(h), maxDomainLength)
		}
	}

	return nil
}
