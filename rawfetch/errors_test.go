package rawfetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestClassifyHandshake(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want HandshakeKind
	}{
		{"record header", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, HandshakeRecordLayerMismatch},
		{"wrapped record header", fmt.Errorf("dial: %w", tls.RecordHeaderError{Msg: "x"}), HandshakeRecordLayerMismatch},
		{"verification", &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}, HandshakeCertificateError},
		{"hostname", x509.HostnameError{Host: "example.com"}, HandshakeCertificateError},
		{"expired", x509.CertificateInvalidError{Reason: x509.Expired}, HandshakeCertificateError},
		{"eof", io.EOF, HandshakeOther},
		{"alert", errors.New("remote error: tls: handshake failure"), HandshakeOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			he := classifyHandshake(tc.err)
			if he.Kind != tc.want {
				t.Fatalf("kind=%v, want %v", he.Kind, tc.want)
			}
			if he.Recoverable() != (tc.want == HandshakeRecordLayerMismatch) {
				t.Fatalf("recoverable=%v for %v", he.Recoverable(), he.Kind)
			}
			if !errors.Is(he, tc.err) {
				t.Fatal("HandshakeError does not unwrap to cause")
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Phase: PhaseConnect, URL: "http://example.com/", Err: errors.New("connection refused")}
	if got, want := err.Error(), "rawfetch: connect http://example.com/: connection refused"; got != want {
		t.Fatalf("Error()=%q, want %q", got, want)
	}
}
