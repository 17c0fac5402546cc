package rawfetch

import (
	"crypto/x509"
	"time"
)

const (
	DefaultTimeout      = 8 * time.Second
	DefaultMaxBodyBytes = 1_000_000
	DefaultMaxRedirects = 5
)

// Options controls a fetch chain. It is read-only while a chain runs.
type Options struct {
	// AllowInsecureTLS skips certificate chain and hostname verification.
	// A handshake is still performed.
	AllowInsecureTLS bool
	// DisableSNI omits the server name from the ClientHello.
	DisableSNI bool
	// Timeout bounds connect, handshake and each individual read.
	Timeout time.Duration
	// MaxBodyBytes caps the raw bytes read from the peer and the body
	// returned in a Result.
	MaxBodyBytes    int
	FollowRedirects bool
	// MaxRedirects caps followed hops; zero means DefaultMaxRedirects.
	MaxRedirects int
	// Debug emits handshake and redirect diagnostics to the logger.
	Debug bool

	UserAgent string
	// RootCAs overrides the system trust store when non-nil.
	RootCAs *x509.CertPool
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	return o
}
