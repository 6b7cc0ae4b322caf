package core

// streaming.go wraps feed readers so lines can be consumed one at a time:
//
//   - countingReader tracks raw bytes read for progress logging
//   - an optional x/text decoder converts legacy encodings to UTF-8
//
// UTF-8 BOM removal and invalid-sequence replacement happen per line in
// the loader, so no full-file buffering is needed.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// utf8BOM is the byte order mark some Windows exports put on the first line.
const utf8BOM = "\ufeff"

// LookupEncoding returns the decoder for a configured feed encoding.
// UTF-8 (or empty) returns nil: the bytes are used as-is.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("unsupported feed encoding %q", name)
	}
}

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

// FeedReader is a decoded feed stream that remembers how many source bytes
// have been consumed.
type FeedReader struct {
	io.Reader
	counter *countingReader
}

// BytesRead returns the number of undecoded bytes read so far.
func (r *FeedReader) BytesRead() int64 {
	return r.counter.bytesRead
}

// WrapFeed wraps r for line-by-line loading. enc may be nil for UTF-8 input.
func WrapFeed(r io.Reader, enc encoding.Encoding) *FeedReader {
	counter := &countingReader{reader: r}

	var decoded io.Reader = counter
	if enc != nil {
		decoded = transform.NewReader(counter, enc.NewDecoder())
	}

	return &FeedReader{Reader: decoded, counter: counter}
}

// sanitizeLine strips a leading BOM and replaces invalid UTF-8 sequences.
func sanitizeLine(line string, first bool) string {
	if first {
		line = strings.TrimPrefix(line, utf8BOM)
	}
	return strings.ToValidUTF8(line, "\uFFFD")
}
