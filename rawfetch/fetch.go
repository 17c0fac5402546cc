package rawfetch

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"dqx0.com/go/urlfetch/internal/obs"
	"dqx0.com/go/urlfetch/rawfetch/internal/http1"
)

// Fetcher performs fetches with fixed Options. Its fields must not change
// while fetches run; a Fetcher is then safe for concurrent chains.
type Fetcher struct {
	Options Options
	// Logger receives diagnostics. When nil, the logger on the context
	// (zerolog.Ctx) is used.
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	// Dialer defaults to a net.Dialer with Options.Timeout.
	Dialer ContextDialer
}

// FetchOnce performs exactly one fetch of rawURL without following
// redirects.
func (f *Fetcher) FetchOnce(ctx context.Context, rawURL string) (*Result, error) {
	opts := f.Options.WithDefaults()
	lg := f.logger(ctx)
	return f.fetchURL(ctx, rawURL, opts, &lg)
}

// Fetch fetches rawURL and, when Options.FollowRedirects is set, follows
// up to Options.MaxRedirects redirects. On error the returned chain holds
// the hops fetched before the failure.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Chain, error) {
	opts := f.Options.WithDefaults()
	chain := &Chain{ID: chainID(ctx)}
	lg := f.logger(ctx).With().Str("chain_id", chain.ID).Logger()

	state := NewRedirectState(rawURL, opts.MaxRedirects)
	for state.Phase == Fetching {
		res, err := f.fetchURL(ctx, state.URL, opts, &lg)
		if err != nil {
			return chain, err
		}
		chain.Hops = append(chain.Hops, res)

		var dec RedirectDecision
		state, dec = state.Next(res.Message(), opts.FollowRedirects)
		chain.Decisions = append(chain.Decisions, dec)
		if dec.Follow {
			f.Metrics.Redirected()
			diag(&lg, opts).Int("hop", state.Hops).Str("location", dec.NextURL).Msg("following redirect")
		} else if dec.Reason == ReasonHopLimit || dec.Reason == ReasonBadLocation {
			diag(&lg, opts).Str("reason", dec.Reason).Int("hops", state.Hops).Msg("redirect not followed")
		}
	}
	return chain, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, rawURL string, opts Options, lg *zerolog.Logger) (*Result, error) {
	t, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := f.fetch(ctx, t, opts, lg)
	took := time.Since(start)
	if err != nil {
		outcome := "error"
		var fe *Error
		if errors.As(err, &fe) {
			outcome = string(fe.Phase)
		}
		f.Metrics.ObserveFetch(t.Scheme, outcome, took, 0)
		lg.Debug().Err(err).Str("url", rawURL).Msg("fetch failed")
		return nil, err
	}
	res.URL = rawURL
	res.Duration = took
	f.Metrics.ObserveFetch(res.EffectiveScheme, "ok", took, res.RawBytes)
	lg.Debug().
		Str("url", rawURL).
		Str("scheme", res.EffectiveScheme).
		Int("status", res.StatusCode).
		Int("bytes", res.RawBytes).
		Bool("truncated", res.Truncated).
		Dur("took", took).
		Msg("fetch complete")
	return res, nil
}

func (f *Fetcher) fetch(ctx context.Context, t Target, opts Options, lg *zerolog.Logger) (*Result, error) {
	nc, err := f.negotiate(ctx, t, opts, lg)
	if err != nil {
		return nil, err
	}
	defer nc.conn.Close()

	setWriteDeadline(nc.conn, opts.Timeout, ctx)
	if err := http1.WriteRequest(nc.conn, t.HostHeader(), t.RequestURI(), opts.UserAgent); err != nil {
		return nil, &Error{Phase: PhaseWrite, URL: t.String(), Err: err}
	}

	deadline, _ := ctx.Deadline()
	raw, truncated, err := http1.ReadBounded(nc.conn, opts.MaxBodyBytes, opts.Timeout, deadline)
	if err != nil {
		return nil, &Error{Phase: PhaseRead, URL: t.String(), Err: err}
	}

	msg := ParseMessage(raw)
	return &Result{
		EffectiveScheme:    nc.scheme,
		NegotiatedProtocol: nc.protocol,
		StatusLine:         msg.StatusLine,
		StatusCode:         msg.StatusCode(),
		Header:             msg.Header,
		Body:               msg.Body,
		Truncated:          truncated,
		RawBytes:           len(raw),
	}, nil
}

func (f *Fetcher) logger(ctx context.Context) zerolog.Logger {
	if f.Logger != nil {
		return *f.Logger
	}
	return *zerolog.Ctx(ctx)
}

// Message returns the parsed status line and headers of r.
func (r *Result) Message() Message {
	return Message{StatusLine: r.StatusLine, Header: r.Header, Body: r.Body}
}

// EffectiveURL is URL with its scheme replaced by the scheme actually used.
func (r *Result) EffectiveURL() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Scheme == r.EffectiveScheme {
		return r.URL
	}
	u.Scheme = r.EffectiveScheme
	return u.String()
}
