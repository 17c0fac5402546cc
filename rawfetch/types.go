package rawfetch

import (
	"iter"
	"strconv"
	"strings"
	"time"

	"dqx0.com/go/urlfetch/rawfetch/internal/http1"
)

// Header is an ordered mapping of lowercase header name to trimmed value.
// A repeated name keeps its first position and its last value.
type Header struct {
	keys []string
	vals map[string]string
}

func newHeader(fields []http1.Field) Header {
	h := Header{}
	for _, f := range fields {
		h.set(f.Name, f.Value)
	}
	return h
}

func (h *Header) set(key, value string) {
	if h.vals == nil {
		h.vals = make(map[string]string)
	}
	if _, ok := h.vals[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.vals[key] = value
}

// Get returns the value for key, matched case-insensitively.
func (h Header) Get(key string) string {
	return h.vals[strings.ToLower(key)]
}

// Lookup is Get with a presence flag.
func (h Header) Lookup(key string) (string, bool) {
	v, ok := h.vals[strings.ToLower(key)]
	return v, ok
}

// Len is the number of distinct header names.
func (h Header) Len() int { return len(h.keys) }

// Keys returns header names in first-seen order.
func (h Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// All iterates name/value pairs in first-seen order.
func (h Header) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range h.keys {
			if !yield(k, h.vals[k]) {
				return
			}
		}
	}
}

// Message is a response split into status line, headers and body.
type Message struct {
	StatusLine string
	Header     Header
	Body       []byte
}

// ParseMessage splits raw response bytes. Input without a header/body
// boundary becomes a body-only message.
func ParseMessage(raw []byte) Message {
	m := http1.Split(raw)
	return Message{StatusLine: m.StatusLine, Header: newHeader(m.Fields), Body: m.Body}
}

// StatusCode returns the numeric code from an "HTTP/x.y NNN reason" line,
// or 0 when the line does not look like one.
func (m Message) StatusCode() int {
	if !strings.HasPrefix(m.StatusLine, "HTTP/") {
		return 0
	}
	fields := strings.Fields(m.StatusLine)
	if len(fields) < 2 || len(fields[1]) != 3 {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}

// Result is the outcome of one fetch.
type Result struct {
	URL string
	// EffectiveScheme is the transport actually used; "http" after a TLS
	// fallback even when URL is https.
	EffectiveScheme string
	// NegotiatedProtocol is the ALPN result, empty for plaintext.
	NegotiatedProtocol string
	StatusLine         string
	StatusCode         int
	Header             Header
	Body               []byte
	// Truncated reports that the read cap was reached. A peer that sends
	// exactly the cap and then closes is also reported as truncated, since
	// no read past the cap is made to tell the two apart.
	Truncated bool
	RawBytes  int
	Duration  time.Duration
}

// Chain is every response fetched while following redirects, in order.
type Chain struct {
	ID        string
	Hops      []*Result
	Decisions []RedirectDecision
}

// Final returns the last fetched result, or nil for an empty chain.
func (c *Chain) Final() *Result {
	if c == nil || len(c.Hops) == 0 {
		return nil
	}
	return c.Hops[len(c.Hops)-1]
}
