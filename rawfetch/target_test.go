package rawfetch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		in         string
		want       Target
		hostHeader string
		requestURI string
	}{
		{
			in:         "http://example.com",
			want:       Target{Scheme: "http", Host: "example.com", Port: 80, Path: "/"},
			hostHeader: "example.com",
			requestURI: "/",
		},
		{
			in:         "HTTPS://Example.COM:8443/a/b?x=1&y=2",
			want:       Target{Scheme: "https", Host: "example.com", Port: 8443, Path: "/a/b", Query: "x=1&y=2"},
			hostHeader: "example.com:8443",
			requestURI: "/a/b?x=1&y=2",
		},
		{
			in:         "https://1.2.3.4:443/index.html",
			want:       Target{Scheme: "https", Host: "1.2.3.4", Port: 443, Path: "/index.html"},
			hostHeader: "1.2.3.4",
			requestURI: "/index.html",
		},
		{
			in:         "http://[::1]:8080/x%20y",
			want:       Target{Scheme: "http", Host: "::1", Port: 8080, Path: "/x%20y"},
			hostHeader: "[::1]:8080",
			requestURI: "/x%20y",
		},
		{
			in:         "//example.org/p",
			want:       Target{Scheme: "http", Host: "example.org", Port: 80, Path: "/p"},
			hostHeader: "example.org",
			requestURI: "/p",
		},
		{
			in:         "http://bücher.example/",
			want:       Target{Scheme: "http", Host: "xn--bcher-kva.example", Port: 80, Path: "/"},
			hostHeader: "xn--bcher-kva.example",
			requestURI: "/",
		},
	}
	for _, tc := range cases {
		got, err := ParseTarget(tc.in)
		if err != nil {
			t.Errorf("ParseTarget(%q): %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseTarget(%q) (-want +got):\n%s", tc.in, diff)
		}
		if h := got.HostHeader(); h != tc.hostHeader {
			t.Errorf("%q HostHeader=%q, want %q", tc.in, h, tc.hostHeader)
		}
		if r := got.RequestURI(); r != tc.requestURI {
			t.Errorf("%q RequestURI=%q, want %q", tc.in, r, tc.requestURI)
		}
	}
}

func TestParseTarget_Errors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"http:///nohost", ErrMissingHost},
		{"example.com/path", ErrMissingHost},
		{"ftp://example.com/", ErrUnsupportedScheme},
		{"http://example.com:0/", ErrInvalidPort},
		{"http://example.com:70000/", ErrInvalidPort},
	}
	for _, tc := range cases {
		_, err := ParseTarget(tc.in)
		if !errors.Is(err, tc.want) {
			t.Errorf("ParseTarget(%q) err=%v, want %v", tc.in, err, tc.want)
			continue
		}
		var fe *Error
		if !errors.As(err, &fe) || fe.Phase != PhaseInput {
			t.Errorf("ParseTarget(%q) err=%v, want input phase", tc.in, err)
		}
	}
}

func TestTarget_StringRoundTrip(t *testing.T) {
	for _, in := range []string{"http://example.com/", "https://example.com:8443/a%2Fb?q=1"} {
		tg, err := ParseTarget(in)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", in, err)
		}
		if got := tg.String(); got != in {
			t.Errorf("String()=%q, want %q", got, in)
		}
	}
}
