package kex

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"
)

// DialFunc dials a broker's TCP endpoint, returning a net.Conn ready
// for framed request/response traffic. The default implementation uses
// net.Dialer.DialContext; Config.DialFunc or Config.Proxy override it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// ProxyDialer is the subset of golang.org/x/net/proxy.Dialer this
// package depends on, so callers can plug in a SOCKS5 dialer without
// this package importing the concrete proxy package at the Config
// call site.
type ProxyDialer interface {
	Dial(network, addr string) (net.Conn, error)
}

func defaultDialFunc() DialFunc {
	d := &net.Dialer{Timeout: 30 * time.Second}
	return d.DialContext
}

// dialFuncFor resolves the DialFunc a connection should use, honoring
// Config.DialFunc first, then Config.Proxy, then falling back to a
// plain net.Dialer — the same override-chain shape the teacher uses
// for its own pluggable dial hook.
func dialFuncFor(cfg *Config) DialFunc {
	if cfg.DialFunc != nil {
		return cfg.DialFunc
	}
	if cfg.Proxy.Enable && cfg.Proxy.Dialer != nil {
		dialer := cfg.Proxy.Dialer
		return func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return defaultDialFunc()
}

// dialBroker opens a connection to addr, wrapping it in TLS when
// UseSSL is set, per spec.md section 4.2.
func dialBroker(ctx context.Context, cfg *Config, addr string) (net.Conn, error) {
	dial := dialFuncFor(cfg)
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if !cfg.UseSSL {
		return conn, nil
	}
	tlsConfig, err := buildTLSConfig(cfg.SSLOptions)
	if err != nil {
		conn.Close()
		return nil, err
	}
	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// buildTLSConfig turns the opaque SSLOptions into a *tls.Config, per
// spec.md's "opaque TLS parameters" description of the ssl_options
// broker-init option.
func buildTLSConfig(opts SSLOptions) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: opts.InsecureSkipVerify,
		ServerName:         opts.ServerName,
	}
	if opts.CertFile != "" && opts.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	if opts.CAFile != "" {
		pool, err := loadCertPool(opts.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

func loadCertPool(caFile string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("kex: no certificates found in %s", caFile)
	}
	return pool, nil
}

// writeFrame writes a single length-prefixed request frame and flushes
// it, per spec.md section 4.2's "send_sync writes one framed request"
// contract.
func writeFrame(conn net.Conn, frame []byte, deadline time.Time) error {
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := conn.Write(frame)
	if err != nil {
		return ErrDisconnected
	}
	return nil
}

// readFrame reads exactly one length-prefixed response frame: a
// leading int32 size followed by that many bytes, per spec.md section
// 4.2.
func readFrame(conn net.Conn, deadline time.Time) ([]byte, error) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	var sizeBuf [4]byte
	if _, err := readFull(conn, sizeBuf[:]); err != nil {
		return nil, err
	}
	size := int32(sizeBuf[0])<<24 | int32(sizeBuf[1])<<16 | int32(sizeBuf[2])<<8 | int32(sizeBuf[3])
	if size < 0 {
		return nil, ErrMalformed
	}
	body := make([]byte, size)
	if _, err := readFull(conn, body); err != nil {
		return nil, err
	}
	return body, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			if isTimeout(err) {
				return read, ErrTimeout
			}
			return read, ErrDisconnected
		}
	}
	return read, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
