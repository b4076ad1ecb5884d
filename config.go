package socks5

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is used when Config.ProxyPort is 0
const DefaultPort = 1080

// Config of the client. It is copied by NewClient and never changed afterwards
type Config struct {
	ProxyHost string
	ProxyPort uint16 // DefaultPort, if 0

	// Username/password authentication is offered to the proxy, if Username != ""
	Username string
	Password string
}

// "host:port" of the proxy
func (c Config) ProxyAddr() string {
	port := c.ProxyPort
	if port == 0 {
		port = DefaultPort
	}

	return net.JoinHostPort(c.ProxyHost, strconv.FormatUint(uint64(port), 10))
}

func (c Config) hasCredentials() bool {
	return c.Username != ""
}

// ParseURL parses socks5://[user:pass@]host[:port].
//
// socks5h is accepted as an alias, the client never resolves names itself
func ParseURL(rawURL string) (Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Config{}, ErrProtocol.Wrap(err, "invalid proxy url")
	}

	switch strings.ToLower(u.Scheme) {
	case "socks5", "socks5h":

	case "":
		return Config{}, ErrProtocol.New("invalid proxy url: missing scheme")

	default:
		return Config{}, ErrProtocol.New("invalid proxy url scheme: %q", u.Scheme)
	}

	if u.Path != "" && u.Path != "/" {
		return Config{}, ErrProtocol.New("invalid proxy url: path should be empty")
	}

	cfg := Config{
		ProxyHost: u.Hostname(),
	}
	if cfg.ProxyHost == "" {
		return Config{}, ErrProtocol.New("invalid proxy url: missing host")
	}

	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Config{}, ErrProtocol.Wrap(err, "invalid proxy port (%v)", p)
		}

		cfg.ProxyPort = uint16(port)
	}

	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	return cfg, nil
}
