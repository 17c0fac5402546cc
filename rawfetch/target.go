package rawfetch

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Target is a parsed fetch destination.
type Target struct {
	Scheme string // "http" or "https"
	Host   string // without brackets for IPv6 literals
	Port   int
	Path   string // escaped, always starts with "/"
	Query  string // raw query without "?", empty when absent
}

// ParseTarget derives a Target from rawURL. A URL with an authority but no
// scheme ("//host/x") is treated as http.
func ParseTarget(rawURL string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Target{}, &Error{Phase: PhaseInput, URL: rawURL, Err: err}
	}
	return targetFromURL(u)
}

func targetFromURL(u *url.URL) (Target, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "http"
	}
	if scheme != "http" && scheme != "https" {
		return Target{}, &Error{Phase: PhaseInput, URL: u.String(), Err: fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Target{}, &Error{Phase: PhaseInput, URL: u.String(), Err: ErrMissingHost}
	}
	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return Target{}, &Error{Phase: PhaseInput, URL: u.String(), Err: fmt.Errorf("host %q: %w", host, err)}
		}
		host = ascii
	}
	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Target{}, &Error{Phase: PhaseInput, URL: u.String(), Err: fmt.Errorf("%w %q", ErrInvalidPort, p)}
		}
		port = n
	}
	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Target{Scheme: scheme, Host: host, Port: port, Path: path, Query: u.RawQuery}, nil
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Addr is the dial address.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// HostHeader is the Host header value: the host alone on the scheme's
// default port, host:port otherwise.
func (t Target) HostHeader() string {
	if t.Port == defaultPort(t.Scheme) {
		if strings.Contains(t.Host, ":") {
			return "[" + t.Host + "]"
		}
		return t.Host
	}
	return t.Addr()
}

// RequestURI is the path plus query as sent on the request line.
func (t Target) RequestURI() string {
	if t.Query == "" {
		return t.Path
	}
	return t.Path + "?" + t.Query
}

// URL renders the target back into an absolute URL.
func (t Target) URL() *url.URL {
	u := &url.URL{Scheme: t.Scheme, Host: t.HostHeader(), RawQuery: t.Query}
	if p, err := url.PathUnescape(t.Path); err == nil {
		u.Path = p
		u.RawPath = t.Path
	} else {
		u.Path = t.Path
	}
	return u
}

func (t Target) String() string { return t.URL().String() }
