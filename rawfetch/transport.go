package rawfetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// ContextDialer opens stream connections. *net.Dialer satisfies it.
type ContextDialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// negotiated is an open, fully set up stream.
type negotiated struct {
	conn     net.Conn
	scheme   string
	protocol string
}

// negotiate dials the target and, for https, runs the TLS handshake. A
// handshake that fails because the peer is not speaking TLS is retried once
// over a fresh plaintext connection.
func (f *Fetcher) negotiate(ctx context.Context, t Target, opts Options, lg *zerolog.Logger) (negotiated, error) {
	conn, err := f.dial(ctx, t, opts)
	if err != nil {
		return negotiated{}, err
	}
	if t.Scheme != "https" {
		return negotiated{conn: conn, scheme: "http"}, nil
	}

	tc := tls.Client(conn, tlsConfig(t, opts))
	hctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	err = tc.HandshakeContext(hctx)
	cancel()
	if err == nil {
		st := tc.ConnectionState()
		diag(lg, opts).
			Str("alpn", st.NegotiatedProtocol).
			Str("tls_version", tls.VersionName(st.Version)).
			Msg("TLS OK")
		return negotiated{conn: tc, scheme: "https", protocol: st.NegotiatedProtocol}, nil
	}

	he := classifyHandshake(err)
	f.Metrics.HandshakeFailed(he.Kind.String())
	_ = conn.Close()
	if !he.Recoverable() {
		diag(lg, opts).Err(err).Str("kind", he.Kind.String()).Msg("TLS failed")
		return negotiated{}, &Error{Phase: PhaseHandshake, URL: t.String(), Err: he}
	}
	diag(lg, opts).Err(err).Msg("TLS failed, falling back to plain HTTP")
	f.Metrics.FellBack()

	conn, err = f.dial(ctx, t, opts)
	if err != nil {
		return negotiated{}, err
	}
	return negotiated{conn: conn, scheme: "http"}, nil
}

func (f *Fetcher) dial(ctx context.Context, t Target, opts Options) (net.Conn, error) {
	d := f.Dialer
	if d == nil {
		d = &net.Dialer{Timeout: opts.Timeout}
	}
	dctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	conn, err := d.DialContext(dctx, "tcp", t.Addr())
	if err != nil {
		return nil, &Error{Phase: PhaseConnect, URL: t.String(), Err: err}
	}
	return conn, nil
}

func tlsConfig(t Target, opts Options) *tls.Config {
	cfg := &tls.Config{
		ServerName:         t.Host,
		NextProtos:         []string{"http/1.1"},
		RootCAs:            opts.RootCAs,
		InsecureSkipVerify: opts.AllowInsecureTLS,
	}
	if opts.DisableSNI {
		// crypto/tls derives both SNI and the verified name from
		// ServerName, so verification moves into VerifyConnection.
		cfg.ServerName = ""
		if !opts.AllowInsecureTLS {
			cfg.InsecureSkipVerify = true
			cfg.VerifyConnection = verifyPeer(t.Host, opts.RootCAs)
		}
	}
	return cfg
}

func verifyPeer(host string, roots *x509.CertPool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("tls: server presented no certificates")
		}
		vo := x509.VerifyOptions{
			DNSName:       host,
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			vo.Intermediates.AddCert(c)
		}
		if _, err := cs.PeerCertificates[0].Verify(vo); err != nil {
			return &tls.CertificateVerificationError{UnverifiedCertificates: cs.PeerCertificates, Err: err}
		}
		return nil
	}
}

// setWriteDeadline arms the write deadline from the timeout and ctx,
// whichever is earlier.
func setWriteDeadline(c net.Conn, timeout time.Duration, ctx context.Context) {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if dl, ok := ctx.Deadline(); ok {
		if d.IsZero() || dl.Before(d) {
			d = dl
		}
	}
	if !d.IsZero() {
		_ = c.SetWriteDeadline(d)
	}
}

// diag returns a debug event only when the caller asked for diagnostics.
// A nil *zerolog.Event discards everything chained onto it.
func diag(lg *zerolog.Logger, opts Options) *zerolog.Event {
	if !opts.Debug {
		return nil
	}
	return lg.Debug()
}
