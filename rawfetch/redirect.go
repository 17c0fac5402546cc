package rawfetch

import (
	"net/url"
	"strings"
)

// RedirectPhase is the state of a fetch chain.
type RedirectPhase int

const (
	Fetching RedirectPhase = iota
	Done
)

func (p RedirectPhase) String() string {
	if p == Done {
		return "done"
	}
	return "fetching"
}

// Reasons recorded on a RedirectDecision.
const (
	ReasonRedirect    = "redirect"
	ReasonDisabled    = "disabled"
	ReasonNotRedirect = "not-redirect"
	ReasonNoLocation  = "no-location"
	ReasonHopLimit    = "hop-limit"
	ReasonBadLocation = "bad-location"
	ReasonFinished    = "finished"
)

// RedirectDecision is the outcome of one transition.
type RedirectDecision struct {
	Follow  bool
	NextURL string
	Reason  string
}

// RedirectState is the explicit state of a redirect chain: the URL to fetch
// next, how many hops were followed, and the hop cap.
type RedirectState struct {
	Phase RedirectPhase
	URL   string
	Hops  int
	Max   int
}

// NewRedirectState starts a chain at rawURL. maxHops <= 0 means
// DefaultMaxRedirects.
func NewRedirectState(rawURL string, maxHops int) RedirectState {
	if maxHops <= 0 {
		maxHops = DefaultMaxRedirects
	}
	return RedirectState{Phase: Fetching, URL: rawURL, Max: maxHops}
}

// Next inspects the response fetched for s.URL and returns the following
// state. It never mutates s.
func (s RedirectState) Next(msg Message, follow bool) (RedirectState, RedirectDecision) {
	if s.Phase == Done {
		return s, RedirectDecision{Reason: ReasonFinished}
	}
	done := func(reason string) (RedirectState, RedirectDecision) {
		s.Phase = Done
		return s, RedirectDecision{Reason: reason}
	}
	if !follow {
		return done(ReasonDisabled)
	}
	if !IsRedirectStatus(msg.StatusLine) {
		return done(ReasonNotRedirect)
	}
	loc := msg.Header.Get("location")
	if loc == "" {
		return done(ReasonNoLocation)
	}
	if s.Hops >= s.Max {
		return done(ReasonHopLimit)
	}
	next, err := Resolve(s.URL, loc)
	if err != nil || !fetchableScheme(next) {
		return done(ReasonBadLocation)
	}
	s.URL = next
	s.Hops++
	return s, RedirectDecision{Follow: true, NextURL: next, Reason: ReasonRedirect}
}

// fetchableScheme reports whether an absolute URL uses http or https.
func fetchableScheme(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}

var redirectCodes = []string{"301", "302", "303", "307", "308"}

// IsRedirectStatus reports whether statusLine is an HTTP status line with a
// redirect code, either as the code token or as the line's last word.
func IsRedirectStatus(statusLine string) bool {
	if !strings.HasPrefix(statusLine, "HTTP/") {
		return false
	}
	fields := strings.Fields(statusLine)
	for _, code := range redirectCodes {
		if len(fields) > 1 && fields[1] == code {
			return true
		}
		if strings.HasSuffix(statusLine, code) {
			return true
		}
	}
	return false
}

// Resolve merges location against base per RFC 3986 reference resolution.
func Resolve(base, location string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
