// Command urlfetch fetches a URL over a raw socket and prints every response
// of the redirect chain: status line, headers, then the body.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"dqx0.com/go/urlfetch/internal/config"
	"dqx0.com/go/urlfetch/internal/obs"
	"dqx0.com/go/urlfetch/rawfetch"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	insecure    bool
	location    bool
	noSNI       bool
	timeout     float64
	maxBody     int
	debug       bool
	configPath  string
	metricsFile string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("urlfetch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf cliFlags
	fs.BoolVar(&cf.insecure, "k", false, "ignore TLS certificate errors")
	fs.BoolVar(&cf.insecure, "insecure", false, "ignore TLS certificate errors")
	fs.BoolVar(&cf.location, "L", false, "follow redirects (max 5)")
	fs.BoolVar(&cf.location, "location", false, "follow redirects (max 5)")
	fs.BoolVar(&cf.noSNI, "no-sni", false, "disable SNI in the TLS handshake")
	fs.Float64Var(&cf.timeout, "timeout", rawfetch.DefaultTimeout.Seconds(), "socket timeout in seconds")
	fs.IntVar(&cf.maxBody, "max-body", rawfetch.DefaultMaxBodyBytes, "max body bytes to print")
	fs.BoolVar(&cf.debug, "debug", false, "verbose diagnostics to stderr")
	fs.StringVar(&cf.configPath, "config", "", "YAML config file")
	fs.StringVar(&cf.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: urlfetch [flags] URL")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	rawURL := fs.Arg(0)

	cfg, err := config.Load(cf.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "[!] Error: %v\n", err)
		return 2
	}
	cfg = cfg.ApplyEnv()
	applyFlags(fs, cf, cfg)
	opts, err := cfg.ToOptions()
	if err != nil {
		fmt.Fprintf(stderr, "[!] Error: %v\n", err)
		return 2
	}

	level := cfg.LogLevel
	if opts.Debug {
		level = "debug"
	}
	lg := obs.NewLogger(level, stderr, true)
	metrics := obs.NewMetrics()
	f := &rawfetch.Fetcher{Options: opts, Logger: &lg, Metrics: metrics}

	chain, err := f.Fetch(ctx, rawURL)
	if chain != nil {
		for _, hop := range chain.Hops {
			printHop(stdout, hop)
		}
	}
	if cf.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(cf.metricsFile, metrics.Registry()); werr != nil {
			lg.Warn().Err(werr).Str("path", cf.metricsFile).Msg("write metrics")
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "[!] Error: %v\n", err)
		return 2
	}
	return 0
}

// applyFlags copies explicitly set flags over file and environment values.
func applyFlags(fs *flag.FlagSet, cf cliFlags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "k", "insecure":
			cfg.Fetch.Insecure = cf.insecure
		case "L", "location":
			cfg.Fetch.FollowRedirects = cf.location
		case "no-sni":
			cfg.Fetch.NoSNI = cf.noSNI
		case "timeout":
			cfg.Fetch.TimeoutSeconds = cf.timeout
		case "max-body":
			cfg.Fetch.MaxBodyBytes = cf.maxBody
		case "debug":
			cfg.Fetch.Debug = cf.debug
		}
	})
}

func printHop(w io.Writer, r *rawfetch.Result) {
	fmt.Fprintf(w, "== %s %s ==\n", strings.ToUpper(r.EffectiveScheme), r.URL)
	fmt.Fprintln(w, r.StatusLine)
	for k, v := range r.Header.All() {
		fmt.Fprintf(w, "%s: %s\n", k, v)
	}
	fmt.Fprintln(w)
	_, _ = w.Write(r.Body)
	if r.Truncated {
		fmt.Fprintf(w, "\n[... truncated at %d bytes ...]\n", r.RawBytes)
	}
}

