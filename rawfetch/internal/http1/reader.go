package http1

import (
	"errors"
	"io"
	"net"
	"os"
	"time"
)

const readChunk = 4096

// DeadlineReader is the part of net.Conn the bounded reader needs.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// ReadBounded drains r until the peer closes, limit bytes have been
// collected, or a single read stalls for longer than timeout. A stalled read
// is not an error: whatever arrived so far is returned. truncated reports
// that limit bytes were collected; whether the peer had more is not probed.
//
// If deadline is non-zero, no read deadline is armed past it.
func ReadBounded(r DeadlineReader, limit int, timeout time.Duration, deadline time.Time) (data []byte, truncated bool, err error) {
	if limit <= 0 {
		return nil, false, nil
	}
	buf := make([]byte, 0, min(limit, readChunk))
	for len(buf) < limit {
		if timeout > 0 || !deadline.IsZero() {
			if err := r.SetReadDeadline(nextDeadline(timeout, deadline)); err != nil {
				return buf, false, err
			}
		}
		want := min(limit-len(buf), readChunk)
		if cap(buf)-len(buf) < want {
			grown := make([]byte, len(buf), min(limit, max(2*cap(buf), len(buf)+want)))
			copy(grown, buf)
			buf = grown
		}
		n, rerr := r.Read(buf[len(buf) : len(buf)+want])
		buf = buf[:len(buf)+n]
		if rerr != nil {
			if isEndOfStream(rerr) || IsTimeout(rerr) {
				return buf, false, nil
			}
			return buf, false, rerr
		}
		if n == 0 {
			// A zero-length read without error is the peer closing on some
			// conn implementations.
			return buf, false, nil
		}
	}
	return buf, true, nil
}

func nextDeadline(timeout time.Duration, deadline time.Time) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if !deadline.IsZero() && (d.IsZero() || deadline.Before(d)) {
		d = deadline
	}
	return d
}

// isEndOfStream treats a TLS peer that closes without close_notify the same
// as a clean close.
func isEndOfStream(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
