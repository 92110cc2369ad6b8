package fixedwidth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// maxLineBytes bounds a single physical line.
const maxLineBytes = 4 << 20

// Parser slices lines with a fixed set of spans and decodes every value from
// the configured source encoding into UTF-8. Offsets always apply to the raw
// (undecoded) bytes, since widths in spec files count source bytes.
type Parser struct {
	spans []Span
	enc   encoding.Encoding // nil for UTF-8 input
}

// Options configures a Parser.
type Options struct {
	Layout   Layout
	Encoding string // WHATWG label, e.g. "utf-8", "windows-1250", "latin1"
}

// New builds a Parser for the given column widths.
func New(widths []int, opts Options) (*Parser, error) {
	spans, err := Spans(widths, opts.Layout)
	if err != nil {
		return nil, err
	}
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	return &Parser{spans: spans, enc: enc}, nil
}

// LookupEncoding resolves a WHATWG encoding label. UTF-8 and the empty label
// return a nil Encoding, meaning values are used as-is.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("fixedwidth: unknown encoding %q: %w", label, err)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// Spans returns the byte ranges the parser cuts.
func (p *Parser) Spans() []Span { return p.spans }

// Parse slices one line into trimmed, decoded values.
func (p *Parser) Parse(line string) ([]string, error) {
	vals := Slice(line, p.spans)
	if p.enc == nil {
		return vals, nil
	}
	dec := p.enc.NewDecoder()
	for i, v := range vals {
		s, err := dec.String(v)
		if err != nil {
			return nil, fmt.Errorf("fixedwidth: decode column %d: %w", i, err)
		}
		vals[i] = s
		dec.Reset()
	}
	return vals, nil
}

// Line is one physical line of a data file.
type Line struct {
	Number int // 1-based
	Raw    string
	Values []string
	Err    error // decode failure for this line only
}

// Stats summarizes one pass over a data file.
type Stats struct {
	Lines int // every physical line read
	Blank int // whitespace-only lines, skipped
}

// Each reads r line by line and calls fn for every non-blank line. Blank
// lines are counted and skipped. A decode failure is delivered in Line.Err so
// the caller can reject that line and keep going; an error returned by fn or
// by the underlying reader stops the scan.
func (p *Parser) Each(ctx context.Context, r io.Reader, fn func(Line) error) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Lines++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			st.Blank++
			continue
		}
		vals, err := p.Parse(raw)
		if err := fn(Line{Number: st.Lines, Raw: raw, Values: vals, Err: err}); err != nil {
			return st, err
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("fixedwidth: read line %d: %w", st.Lines+1, err)
	}
	return st, nil
}
