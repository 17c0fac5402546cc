package http1

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Field is one parsed header line. Name is lowercased, both parts trimmed.
type Field struct {
	Name  string
	Value string
}

// Message is a response split into its status line, header fields in wire
// order (duplicates kept), and body.
type Message struct {
	StatusLine string
	Fields     []Field
	Body       []byte
}

var (
	crlfcrlf = []byte("\r\n\r\n")
	lflf     = []byte("\n\n")
)

// Split locates the header/body boundary in raw and parses the header
// block. Without a boundary the whole payload is body. The body aliases raw.
func Split(raw []byte) Message {
	head, body, ok := cutHead(raw)
	if !ok {
		return Message{Body: raw}
	}
	lines := splitLines(decodeHead(head))
	var msg Message
	if len(lines) > 0 {
		msg.StatusLine = lines[0]
	}
	for _, line := range lines[min(1, len(lines)):] {
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		msg.Fields = append(msg.Fields, Field{Name: k, Value: strings.TrimSpace(v)})
	}
	msg.Body = body
	return msg
}

func cutHead(raw []byte) (head, body []byte, ok bool) {
	if i := bytes.Index(raw, crlfcrlf); i >= 0 {
		return raw[:i], raw[i+len(crlfcrlf):], true
	}
	if i := bytes.Index(raw, lflf); i >= 0 {
		return raw[:i], raw[i+len(lflf):], true
	}
	return nil, nil, false
}

// decodeHead decodes the header block as UTF-8, replacing every invalid
// byte with U+FFFD.
func decodeHead(head []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(head)
	if err != nil {
		return strings.ToValidUTF8(string(head), "\uFFFD")
	}
	return string(out)
}

// splitLines splits on CRLF, LF or a lone CR.
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}
