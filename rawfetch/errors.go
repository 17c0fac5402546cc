package rawfetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
)

var (
	// ErrMissingHost is returned for URLs without a host component.
	ErrMissingHost = errors.New("rawfetch: URL missing host")
	// ErrUnsupportedScheme is returned for schemes other than http and https.
	ErrUnsupportedScheme = errors.New("rawfetch: unsupported scheme")
	// ErrInvalidPort is returned for ports outside 1-65535.
	ErrInvalidPort = errors.New("rawfetch: invalid port")
)

// Phase names the pipeline step an error came from.
type Phase string

const (
	PhaseInput     Phase = "input"
	PhaseConnect   Phase = "connect"
	PhaseHandshake Phase = "handshake"
	PhaseWrite     Phase = "write"
	PhaseRead      Phase = "read"
)

// Error is a terminal failure of one fetch.
type Error struct {
	Phase Phase
	URL   string
	Err   error
}

func (e *Error) Error() string {
	return "rawfetch: " + string(e.Phase) + " " + e.URL + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HandshakeKind classifies a failed TLS handshake.
type HandshakeKind int

const (
	HandshakeOther HandshakeKind = iota
	// HandshakeRecordLayerMismatch means the peer answered with bytes that
	// are not TLS records, e.g. a plaintext HTTP server on the port.
	HandshakeRecordLayerMismatch
	// HandshakeCertificateError means the peer speaks TLS but its
	// certificate was rejected.
	HandshakeCertificateError
)

func (k HandshakeKind) String() string {
	switch k {
	case HandshakeRecordLayerMismatch:
		return "record_layer_mismatch"
	case HandshakeCertificateError:
		return "certificate_error"
	default:
		return "other"
	}
}

// HandshakeError wraps the underlying crypto/tls or x509 error.
type HandshakeError struct {
	Kind HandshakeKind
	Err  error
}

func (e *HandshakeError) Error() string {
	return "tls handshake (" + e.Kind.String() + "): " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Recoverable reports whether a plaintext retry is allowed.
func (e *HandshakeError) Recoverable() bool {
	return e.Kind == HandshakeRecordLayerMismatch
}

func classifyHandshake(err error) *HandshakeError {
	var (
		rhe       tls.RecordHeaderError
		cve       *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		invalid   x509.CertificateInvalidError
		sysRoots  x509.SystemRootsError
	)
	switch {
	case errors.As(err, &rhe):
		return &HandshakeError{Kind: HandshakeRecordLayerMismatch, Err: err}
	case errors.As(err, &cve), errors.As(err, &unknownCA), errors.As(err, &hostErr),
		errors.As(err, &invalid), errors.As(err, &sysRoots):
		return &HandshakeError{Kind: HandshakeCertificateError, Err: err}
	default:
		return &HandshakeError{Kind: HandshakeOther, Err: err}
	}
}
