package rawfetch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMessage_HeaderOrderAndLastWins(t *testing.T) {
	m := ParseMessage([]byte("HTTP/1.1 200 OK\r\nSet-Cookie: a=1\r\nContent-Type: text/html\r\nSET-COOKIE: b=2\r\n\r\nbody"))
	if diff := cmp.Diff([]string{"set-cookie", "content-type"}, m.Header.Keys()); diff != "" {
		t.Fatalf("keys (-want +got):\n%s", diff)
	}
	if got := m.Header.Get("Set-Cookie"); got != "b=2" {
		t.Fatalf("set-cookie=%q", got)
	}
	var pairs [][2]string
	for k, v := range m.Header.All() {
		pairs = append(pairs, [2]string{k, v})
	}
	want := [][2]string{{"set-cookie", "b=2"}, {"content-type", "text/html"}}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Fatalf("pairs (-want +got):\n%s", diff)
	}
	if string(m.Body) != "body" {
		t.Fatalf("body=%q", m.Body)
	}
}

func TestParseMessage_NoBoundary(t *testing.T) {
	raw := []byte("just some bytes\r\n")
	m := ParseMessage(raw)
	if m.StatusLine != "" || m.Header.Len() != 0 || string(m.Body) != string(raw) {
		t.Fatalf("got %+v", m)
	}
	if _, ok := m.Header.Lookup("location"); ok {
		t.Fatal("empty header reported a key")
	}
}

func TestChain_Final(t *testing.T) {
	var c *Chain
	if c.Final() != nil {
		t.Fatal("nil chain returned a result")
	}
	a, b := &Result{URL: "a"}, &Result{URL: "b"}
	c = &Chain{Hops: []*Result{a, b}}
	if c.Final() != b {
		t.Fatal("Final did not return last hop")
	}
}

func TestResult_EffectiveURL(t *testing.T) {
	r := &Result{URL: "https://example.com:8443/x", EffectiveScheme: "http"}
	if got := r.EffectiveURL(); got != "http://example.com:8443/x" {
		t.Fatalf("EffectiveURL=%q", got)
	}
	r.EffectiveScheme = "https"
	if got := r.EffectiveURL(); got != r.URL {
		t.Fatalf("EffectiveURL=%q", got)
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{MaxBodyBytes: 10}.WithDefaults()
	if o.Timeout != DefaultTimeout || o.MaxBodyBytes != 10 || o.MaxRedirects != DefaultMaxRedirects {
		t.Fatalf("defaults=%+v", o)
	}
}
