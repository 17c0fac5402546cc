// Package rawfetch is a small HTTP/HTTPS retrieval engine that speaks the
// wire protocol by hand: it dials a raw TCP connection, optionally
// negotiates TLS, writes a fixed GET request line by line, reads a bounded
// response and splits it into status line, headers and body.
//
// Highlights
//   - TLS with optional SNI, optional verification, and a single fallback to
//     plaintext when the peer turns out not to speak TLS at all.
//     Certificate failures never downgrade.
//   - Bounded, timeout-aware reads: a stalled peer yields a partial result,
//     not an error.
//   - Binary-safe, lenient HTTP/1.x splitting; no chunked decoding.
//   - Redirect following as an explicit, bounded state machine.
//   - Observability: zerolog logger and Prometheus metrics hooks.
//
// Quick start:
//
//	f := &rawfetch.Fetcher{Options: rawfetch.Options{FollowRedirects: true}}
//	chain, err := f.Fetch(ctx, "https://example.com/")
//	if err != nil { log.Fatal(err) }
//	res := chain.Final()
//	fmt.Println(res.EffectiveScheme, res.StatusLine)
//	os.Stdout.Write(res.Body)
package rawfetch
