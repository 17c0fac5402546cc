package http1

import (
	"io"
	"strings"
)

// DefaultUserAgent identifies the client when the caller does not set one.
const DefaultUserAgent = "url-fetch/1.1"

// WriteRequest writes a GET request for requestURI to w. The request always
// asks the server to close the connection after responding.
func WriteRequest(w io.Writer, hostHeader, requestURI, userAgent string) error {
	_, err := w.Write(AppendRequest(nil, hostHeader, requestURI, userAgent))
	return err
}

// AppendRequest appends the serialized request to dst and returns the
// extended buffer.
func AppendRequest(dst []byte, hostHeader, requestURI, userAgent string) []byte {
	path := sanitizeField(requestURI)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	dst = appendLine(dst, "GET "+path+" HTTP/1.1")
	dst = appendLine(dst, "Host: "+sanitizeField(hostHeader))
	dst = appendLine(dst, "User-Agent: "+sanitizeField(userAgent))
	dst = appendLine(dst, "Accept: */*")
	dst = appendLine(dst, "Connection: close")
	return appendLine(dst, "")
}

func appendLine(dst []byte, line string) []byte {
	dst = append(dst, line...)
	return append(dst, '\r', '\n')
}

// sanitizeField keeps printable ASCII and HTAB only. Spaces survive so a
// path can never grow a second request line, CR/LF are gone.
func sanitizeField(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == 0x7f || c >= 0x80 {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
