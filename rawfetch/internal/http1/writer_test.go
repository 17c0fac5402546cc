package http1

import (
	"bytes"
	"strings"
	"testing"
)

func TestAppendRequest_Exact(t *testing.T) {
	got := string(AppendRequest(nil, "example.com:8080", "/a/b?x=1", ""))
	want := "GET /a/b?x=1 HTTP/1.1\r\n" +
		"Host: example.com:8080\r\n" +
		"User-Agent: url-fetch/1.1\r\n" +
		"Accept: */*\r\n" +
		"Connection: close\r\n" +
		"\r\n"
	if got != want {
		t.Fatalf("request=%q\nwant    %q", got, want)
	}
}

func TestAppendRequest_Properties(t *testing.T) {
	cases := []struct {
		host, path, wantPath string
	}{
		{"example.com", "/", "/"},
		{"example.com", "", "/"},
		{"example.com", "index.html", "/index.html"},
		{"[::1]:8443", "/q?a=b&c=d", "/q?a=b&c=d"},
		{"10.0.0.1", "/%7Euser/", "/%7Euser/"},
	}
	for _, tc := range cases {
		got := string(AppendRequest(nil, tc.host, tc.path, "probe/2"))
		if prefix := "GET " + tc.wantPath + " HTTP/1.1\r\n"; !strings.HasPrefix(got, prefix) {
			t.Errorf("%q: request starts %q, want %q", tc.path, got, prefix)
		}
		if n := strings.Count(got, "\r\nHost: "); n != 1 {
			t.Errorf("%q: %d Host headers", tc.path, n)
		}
		if !strings.Contains(got, "\r\nHost: "+tc.host+"\r\n") {
			t.Errorf("%q: Host header does not match %q in %q", tc.path, tc.host, got)
		}
		if !strings.HasSuffix(got, "\r\n\r\n") || strings.Count(got, "\r\n\r\n") != 1 {
			t.Errorf("%q: bad terminator in %q", tc.path, got)
		}
		if !strings.Contains(got, "\r\nUser-Agent: probe/2\r\n") {
			t.Errorf("%q: user agent missing in %q", tc.path, got)
		}
	}
}

func TestAppendRequest_StripsInjection(t *testing.T) {
	got := string(AppendRequest(nil, "evil.com\r\nX-Injected: 1", "/p\r\n\r\nGET /other", ""))
	if strings.Contains(got, "X-Injected: 1\r\n") {
		t.Fatalf("header injected: %q", got)
	}
	if strings.Count(got, "\r\n\r\n") != 1 {
		t.Fatalf("request split: %q", got)
	}
}

func TestAppendRequest_DropsNonASCII(t *testing.T) {
	got := string(AppendRequest(nil, "h", "/caf\xc3\xa9", ""))
	if !strings.HasPrefix(got, "GET /caf HTTP/1.1\r\n") {
		t.Fatalf("request=%q", got)
	}
}

func TestWriteRequest_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := WriteRequest(&a, "example.com", "/x", ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteRequest(&b, "example.com", "/x", ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("non-deterministic output: %q vs %q", a.String(), b.String())
	}
}
