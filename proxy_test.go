package socks5_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/joomcode/errorx"
	txsocks5 "github.com/txthinking/socks5"

	"github.com/osf4/socks5client"
	"github.com/osf4/socks5client/internal/testutil"
)

// handleSOCKS5Connect is a minimal CONNECT-only proxy
func handleSOCKS5Connect(ctx context.Context, c net.Conn, user, pass string) error {
	if _, err := txsocks5.NewNegotiationRequestFrom(c); err != nil {
		return err
	}

	if user == "" && pass == "" {
		if _, err := txsocks5.NewNegotiationReply(txsocks5.MethodNone).WriteTo(c); err != nil {
			return err
		}
	} else {
		if _, err := txsocks5.NewNegotiationReply(txsocks5.MethodUsernamePassword).WriteTo(c); err != nil {
			return err
		}

		urq, err := txsocks5.NewUserPassNegotiationRequestFrom(c)
		if err != nil {
			return err
		}
		if string(urq.Uname) != user || string(urq.Passwd) != pass {
			_, _ = txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusFailure).WriteTo(c)
			return nil
		}
		if _, err := txsocks5.NewUserPassNegotiationReply(txsocks5.UserPassStatusSuccess).WriteTo(c); err != nil {
			return err
		}
	}

	req, err := txsocks5.NewRequestFrom(c)
	if err != nil {
		return err
	}
	if req.Cmd != txsocks5.CmdConnect {
		_, _ = txsocks5.NewReply(txsocks5.RepCommandNotSupported, txsocks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
		return nil
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		_, _ = txsocks5.NewReply(txsocks5.RepConnectionRefused, txsocks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
		return nil
	}
	defer dst.Close()

	a, addr, port, err := txsocks5.ParseAddress(dst.LocalAddr().String())
	if err != nil {
		return err
	}
	if a == txsocks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := txsocks5.NewReply(txsocks5.RepSuccess, a, addr, port).WriteTo(c); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(dst, c)
		_ = dst.(*net.TCPConn).CloseWrite()
	}()
	_, _ = io.Copy(c, dst)
	<-done

	return nil
}

func TestClient_ThroughProxy(t *testing.T) {
	tests := []struct {
		name string
		user string
		pass string
	}{
		{name: "no_auth"},
		{name: "user_pass", user: "user", pass: "pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			echoLn := testutil.StartEchoTCPServer(t, ctx)
			defer echoLn.Close()

			upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
				_ = handleSOCKS5Connect(ctx, c, tt.user, tt.pass)
			})

			host, port := testutil.SplitHostPort(t, upLn.Addr())
			client := socks5.NewClient(socks5.Config{ProxyHost: host, ProxyPort: port, Username: tt.user, Password: tt.pass})

			echoHost, echoPort := testutil.SplitHostPort(t, echoLn.Addr())
			conn, err := client.Connect(ctx, echoHost, echoPort)
			if err != nil {
				t.Fatal(err)
			}
			defer conn.Close()

			if got, want := conn.RemoteAddr().String(), echoLn.Addr().String(); got != want {
				t.Errorf("expected remote address %v, got %v", want, got)
			}
			if bnd := conn.LocalAddr().(*socks5.Addr); bnd.Port == 0 || bnd.Host.Type() != socks5.AddrIPv4 {
				t.Errorf("unexpected bound address %v", bnd)
			}

			if err := conn.SetNoDelay(true); err != nil {
				t.Errorf("SetNoDelay: %v", err)
			}
			if err := conn.SetKeepAliveConfig(net.KeepAliveConfig{Enable: true, Idle: 30 * time.Second}); err != nil {
				t.Errorf("SetKeepAliveConfig: %v", err)
			}

			testutil.AssertEcho(t, conn, conn, []byte("hello"))

			// half-close: the echo server answers and closes after our EOF
			if _, err := conn.Write([]byte("bye")); err != nil {
				t.Fatal(err)
			}
			if err := conn.CloseWrite(); err != nil {
				t.Fatalf("CloseWrite: %v", err)
			}
			rest, err := io.ReadAll(conn)
			if err != nil {
				t.Fatal(err)
			}
			if string(rest) != "bye" {
				t.Errorf("expected %q, got %q", "bye", rest)
			}

			conn.Close()
			waitUp()
		})
	}
}

func TestClient_WrongPassword(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = handleSOCKS5Connect(ctx, c, "user", "pass")
	})

	host, port := testutil.SplitHostPort(t, upLn.Addr())
	client := socks5.NewClient(socks5.Config{ProxyHost: host, ProxyPort: port, Username: "user", Password: "wrong"})

	_, err := client.Connect(ctx, "127.0.0.1", 1)
	if !errorx.IsOfType(err, socks5.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}

	waitUp()
}

func TestClient_ConnectionRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// a listener that is closed right away gives a port nobody listens on
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	dstHost, dstPort := testutil.SplitHostPort(t, closed.Addr())
	closed.Close()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = handleSOCKS5Connect(ctx, c, "", "")
	})

	host, port := testutil.SplitHostPort(t, upLn.Addr())
	client := socks5.NewClient(socks5.Config{ProxyHost: host, ProxyPort: port})

	_, err = client.Connect(ctx, dstHost, dstPort)
	if !errorx.IsOfType(err, socks5.ErrRequestDenied) {
		t.Fatalf("expected ErrRequestDenied, got %v", err)
	}
	if rep, _ := socks5.ReplyStatusOf(err); rep != socks5.RepConnRefused {
		t.Errorf("expected %v, got %v", socks5.RepConnRefused, rep)
	}

	waitUp()
}

func TestClient_ProxyUnreachable(t *testing.T) {
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	host, port := testutil.SplitHostPort(t, closed.Addr())
	closed.Close()

	client := socks5.NewClient(socks5.Config{ProxyHost: host, ProxyPort: port})

	_, err = client.Connect(context.Background(), "127.0.0.1", 80)
	if !errorx.IsOfType(err, socks5.ErrConn) {
		t.Fatalf("expected ErrConn, got %v", err)
	}
}

func TestSOCKSDialer_DialContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = handleSOCKS5Connect(ctx, c, "", "")
	})

	client, err := socks5.NewClientURL("socks5://" + upLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	client.EnableLogger()

	conn, err := client.SOCKSDialer().DialContext(ctx, "tcp", echoLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEcho(t, conn, conn, []byte("through the dialer"))

	conn.Close()
	waitUp()
}
